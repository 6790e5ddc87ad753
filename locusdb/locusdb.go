// Package locusdb loads the bundled TRED locus-metadata table (and its
// optional alternative-region table) into locus.Locus values, per spec.md
// §6's "Locus metadata" input.
package locusdb

import (
	"embed"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/tredcaller/interval"
	"github.com/grailbio/tredcaller/locus"
)

//go:embed data/treds.tsv data/alts.tsv
var bundled embed.FS

// row mirrors one line of the bundled locus table, per spec.md §6's column
// list: name, repeat (motif), repeat_location ("chr:start-end", 1-based
// inclusive, matching locus.Locus's own coordinate convention),
// prefix/suffix anchors, both cutoffs, inheritance, mutation_nature, title.
type row struct {
	Name           string `tsv:"name"`
	Repeat         string `tsv:"repeat"`
	RepeatLocation string `tsv:"repeat_location"`
	Prefix         string `tsv:"prefix"`
	Suffix         string `tsv:"suffix"`
	CutoffPrerisk  int    `tsv:"cutoff_prerisk"`
	CutoffRisk     int    `tsv:"cutoff_risk"`
	Inheritance    string `tsv:"inheritance"`
	MutationNature string `tsv:"mutation_nature"`
	Title          string `tsv:"title"`
}

type altRow struct {
	Name    string `tsv:"name"`
	Regions string `tsv:"regions"`
}

// DB is a loaded, name-keyed set of locus definitions.
type DB struct {
	loci map[string]locus.Locus
}

// Load reads the bundled TRED table and its alts table into a DB.
func Load() (*DB, error) {
	tredsF, err := bundled.Open("data/treds.tsv")
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "locusdb: bundled treds.tsv")
	}
	defer tredsF.Close()
	altsF, err := bundled.Open("data/alts.tsv")
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "locusdb: bundled alts.tsv")
	}
	defer altsF.Close()
	return loadFrom(tredsF, altsF)
}

func loadFrom(treds, alts io.Reader) (*DB, error) {
	altsByName, err := loadAlts(alts)
	if err != nil {
		return nil, err
	}

	r := tsv.NewReader(treds)
	r.HasHeaderRow = true
	r.ValidateHeader = true

	db := &DB{loci: map[string]locus.Locus{}}
	for {
		var rec row
		if err := r.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(err, "locusdb: parsing treds.tsv")
		}
		loc, err := toLocus(rec, altsByName[rec.Name])
		if err != nil {
			return nil, err
		}
		db.loci[loc.Name] = loc
	}
	return db, nil
}

func loadAlts(r io.Reader) (map[string][]locus.AltRegion, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.ValidateHeader = true

	out := map[string][]locus.AltRegion{}
	for {
		var rec altRow
		if err := tr.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(err, "locusdb: parsing alts.tsv")
		}
		if rec.Regions == "" {
			continue
		}
		var regions []locus.AltRegion
		for _, r := range strings.Split(rec.Regions, "|") {
			e, err := interval.ParseRegionString(r)
			if err != nil {
				return nil, errors.E(err, fmt.Sprintf("locusdb: alt region %q for %s", r, rec.Name))
			}
			regions = append(regions, locus.AltRegion{Chrom: e.ChrName, Start: int(e.Start0), End: int(e.End)})
		}
		out[rec.Name] = regions
	}
	return out, nil
}

func toLocus(rec row, alts []locus.AltRegion) (locus.Locus, error) {
	entry, err := interval.ParseRegionString(rec.RepeatLocation)
	if err != nil {
		return locus.Locus{}, errors.E(err, fmt.Sprintf("locusdb: repeat_location for %s", rec.Name))
	}
	inh, err := locus.ParseInheritance(rec.Inheritance)
	if err != nil {
		return locus.Locus{}, err
	}
	mn, err := locus.ParseMutationNature(rec.MutationNature)
	if err != nil {
		return locus.Locus{}, err
	}
	loc := locus.Locus{
		Name:           rec.Name,
		Chrom:          entry.ChrName,
		RepeatStart:    int(entry.Start0) + 1,
		RepeatEnd:      int(entry.End),
		Motif:          rec.Repeat,
		Prefix:         rec.Prefix,
		Suffix:         rec.Suffix,
		Alts:           alts,
		Inheritance:    inh,
		MutationNature: mn,
		CutoffPrerisk:  rec.CutoffPrerisk,
		CutoffRisk:     rec.CutoffRisk,
		Ploidy:         2,
		Title:          rec.Title,
	}
	return loc, loc.Validate()
}

// Lookup returns the named locus, or ok=false if the table carries no such
// entry.
func (db *DB) Lookup(name string) (locus.Locus, bool) {
	loc, ok := db.loci[name]
	return loc, ok
}

// Names returns every locus name in the table, in no particular order.
func (db *DB) Names() []string {
	out := make([]string, 0, len(db.loci))
	for name := range db.loci {
		out = append(out, name)
	}
	return out
}

// Len returns the number of loci in the table.
func (db *DB) Len() int {
	return len(db.loci)
}
