// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
tred-call genotypes tandem repeat expansion disorder loci from an aligned
BAM file, producing a VCF and a JSON sidecar per sample.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/tredcaller/bamsource"
	"github.com/grailbio/tredcaller/callrecord"
	"github.com/grailbio/tredcaller/caller"
	"github.com/grailbio/tredcaller/encoding/bamprovider"
	"github.com/grailbio/tredcaller/encoding/fasta"
	"github.com/grailbio/tredcaller/gccontent"
	"github.com/grailbio/tredcaller/genotype"
	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/locusdb"
	"github.com/grailbio/tredcaller/stutter"
)

var (
	bamPath     = flag.String("bam", "", "Input BAM path (required)")
	bamIndex    = flag.String("index", "", "Input BAM index path; defaults to bampath + .bai")
	refPath     = flag.String("ref", "", "Reference FASTA path; when unset, gc content falls back to the historical constant")
	yTablePath  = flag.String("y-table", "", "chrY depth-probe table path; when unset, the bundled hg38 table is used")
	loci        = flag.String("loci", "", "Comma-separated locus names to call; default is every bundled locus")
	outPrefix   = flag.String("out", "tred-call", "Output path prefix; writes <prefix>.vcf and <prefix>.json")
	sampleID    = flag.String("sample", "", "Sample ID for the VCF column header; defaults to the BAM's basename")
	isMale      = flag.Bool("male", false, "Force male ploidy at X-linked loci, skipping gender inference")
	fullSearch  = flag.Bool("full-search", false, "Sweep the full candidate allele range at every locus")
	clippedMode = flag.Bool("clipped-mode", false, "Widen REPT's acceptance window and sum rather than max its aggregator")
	maxInsert   = flag.Int("max-insert", 100, "Upper bound on candidate allele ranges, in motif units")
	parallelism = flag.Int("parallelism", 0, "Maximum simultaneous (sample, locus) worker goroutines; 0 = runtime.NumCPU()")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -bam <path> [options]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *bamPath == "" {
		log.Fatalf("-bam is required")
	}
	if *parallelism <= 0 {
		*parallelism = runtime.NumCPU()
	}

	ctx := vcontext.Background()
	if err := run(ctx); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}

// workItem is one (locus) unit of work dispatched to the worker pool; the
// sample is fixed for a single tred-call invocation (spec.md §5).
type workItem struct {
	loc locus.Locus
}

// workResult pairs a workItem's locus name with its completed call, or the
// error that aborted it.
type workResult struct {
	name string
	call genotype.Call
	err  error
}

func run(ctx context.Context) error {
	models, err := stutter.Load()
	if err != nil {
		return errors.E(err, "tred-call: loading bundled stutter models")
	}

	db, err := locusdb.Load()
	if err != nil {
		return errors.E(err, "tred-call: loading bundled locus table")
	}
	targets, err := selectLoci(db, *loci)
	if err != nil {
		return err
	}

	src, err := bamsource.Open(*bamPath, bamprovider.ProviderOpts{Index: *bamIndex})
	if err != nil {
		return errors.E(err, "tred-call: opening BAM")
	}
	defer src.Close()

	readLen, err := src.PeekReadLen(ctx)
	if err != nil {
		return errors.E(err, "tred-call: determining read length")
	}

	gender, depthY, male := inferGender(ctx, src)

	var estimator *gccontent.Estimator
	if *refPath != "" {
		f, err := os.Open(*refPath)
		if err != nil {
			return errors.E(err, "tred-call: opening reference FASTA")
		}
		defer f.Close()
		ref, err := fasta.New(f)
		if err != nil {
			return errors.E(err, "tred-call: parsing reference FASTA")
		}
		estimator = gccontent.NewEstimator(ref)
	}

	id := *sampleID
	if id == "" {
		id = strings.TrimSuffix(filepathBase(*bamPath), ".bam")
	}

	report := callrecord.SampleReport{
		SampleID:       id,
		BAMPath:        *bamPath,
		InferredGender: gender,
		DepthY:         depthY,
		ReadLen:        readLen,
		Calls:          make(map[string]genotype.Call, len(targets)),
	}

	opts := caller.Options{
		FullSearch:  *fullSearch,
		ClippedMode: *clippedMode,
		IsMale:      male,
		MaxInsert:   *maxInsert,
		GC:          gccontent.DefaultGC,
		Score:       1.0,
	}

	results := callAll(ctx, models, targets, src, estimator, opts)
	lociByName := make(map[string]locus.Locus, len(targets))
	for _, loc := range targets {
		lociByName[loc.Name] = loc
	}
	for _, r := range results {
		if r.err != nil {
			log.Error.Printf("tred-call: %s: %v", r.name, r.err)
			report.Calls[r.name] = genotype.Undetermined(r.name)
			continue
		}
		report.Calls[r.name] = r.call
	}

	return writeOutputs(report, lociByName)
}

// selectLoci resolves the -loci flag (comma-separated names, or empty for
// every bundled locus) against the loaded locus database.
func selectLoci(db *locusdb.DB, namesFlag string) ([]locus.Locus, error) {
	var names []string
	if namesFlag == "" {
		names = db.Names()
	} else {
		for _, n := range strings.Split(namesFlag, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	out := make([]locus.Locus, 0, len(names))
	for _, n := range names {
		loc, ok := db.Lookup(n)
		if !ok {
			return nil, errors.E(errors.NotExist, fmt.Sprintf("tred-call: unknown locus %q", n))
		}
		out = append(out, loc)
	}
	return out, nil
}

// inferGender runs bamsource.InferGender unless -male overrides it, per
// spec.md §6's chrY depth probe.
func inferGender(ctx context.Context, src *bamsource.BAMSource) (gender string, depthY float64, male bool) {
	if *isMale {
		return "male", -1, true
	}
	table, err := yTableText()
	if err != nil {
		log.Error.Printf("tred-call: %v; assuming female ploidy", err)
		return "unknown", 0, false
	}
	gender, depthY, err = src.InferGender(ctx, table)
	if err != nil {
		log.Error.Printf("tred-call: gender inference failed: %v; assuming female ploidy", err)
		return "unknown", 0, false
	}
	return gender, depthY, gender == "male"
}

func yTableText() (string, error) {
	if *yTablePath == "" {
		return bamsource.BundledYTable()
	}
	data, err := os.ReadFile(*yTablePath)
	if err != nil {
		return "", errors.E(err, "tred-call: reading y-table")
	}
	return string(data), nil
}

// gcWindow is the flank span, in bases, gccontent.Estimator looks at around
// a locus when a reference FASTA is supplied.
const gcWindow = 150

// callAll fans (locus) work items out across a bounded worker pool, each
// worker building its own caller.Caller, grounded on
// markduplicates.MarkDuplicates's shard-channel worker pattern.
func callAll(ctx context.Context, models *stutter.Models, targets []locus.Locus, src *bamsource.BAMSource, estimator *gccontent.Estimator, baseOpts caller.Options) []workResult {
	work := make(chan workItem, len(targets))
	for _, loc := range targets {
		work <- workItem{loc: loc}
	}
	close(work)

	resultCh := make(chan workResult, len(targets))
	var wg sync.WaitGroup
	for w := 0; w < *parallelism; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				opts := baseOpts
				if estimator != nil {
					opts.GC = estimator.Estimate(item.loc, gcWindow)
				}
				call, err := caller.New(models, opts).Call(ctx, item.loc, src)
				resultCh <- workResult{name: item.loc.Name, call: call, err: err}
			}
		}()
	}
	wg.Wait()
	close(resultCh)

	results := make([]workResult, 0, len(targets))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

func writeOutputs(report callrecord.SampleReport, lociByName map[string]locus.Locus) error {
	fileDate := time.Now().Format("20060102")
	vcfLines := []string{callrecord.VCFHeader(report, *refPath, fileDate)}
	vcfLines = append(vcfLines, callrecord.VCFBody(report, lociByName)...)
	vcfPath := *outPrefix + ".vcf"
	if err := os.WriteFile(vcfPath, []byte(strings.Join(vcfLines, "\n")+"\n"), 0644); err != nil {
		return errors.E(err, "tred-call: writing VCF")
	}

	jsonBody, err := callrecord.JSON(report)
	if err != nil {
		return errors.E(err, "tred-call: rendering JSON")
	}
	jsonPath := *outPrefix + ".json"
	if err := os.WriteFile(jsonPath, jsonBody, 0644); err != nil {
		return errors.E(err, "tred-call: writing JSON")
	}
	log.Debug.Printf("wrote %s and %s", vcfPath, jsonPath)
	return nil
}

func filepathBase(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return path
}
