package readsource

import "context"

// Fake is an in-memory Source for unit tests, grounded on
// bamprovider.NewFakeProvider's approach of serving a fixed record slice
// through the production interface rather than mocking it away.
type Fake struct {
	Reads    []Read
	ReadLen  int
	DepthFn  func(chrom string, start, end int) float64
}

// NewFake builds a Fake source over the given reads.
func NewFake(reads []Read, readLen int) *Fake {
	return &Fake{Reads: reads, ReadLen: readLen}
}

func (f *Fake) Fetch(_ context.Context, chrom string, start, end int) (Iterator, error) {
	var matched []Read
	for _, r := range f.Reads {
		if r.IsUnmapped {
			matched = append(matched, r)
			continue
		}
		if r.ReferenceStart < end && r.ReferenceEnd > start {
			matched = append(matched, r)
		}
	}
	return &fakeIterator{reads: matched, idx: -1}, nil
}

func (f *Fake) PileupDepth(_ context.Context, chrom string, start, end int) (float64, error) {
	if f.DepthFn != nil {
		return f.DepthFn(chrom, start, end), nil
	}
	n := 0
	for _, r := range f.Reads {
		if !r.IsUnmapped && r.ReferenceStart < end && r.ReferenceEnd > start {
			n++
		}
	}
	width := end - start
	if width <= 0 {
		return 0, nil
	}
	return float64(n) * float64(readSpan(f.Reads)) / float64(width), nil
}

func readSpan(reads []Read) int {
	if len(reads) == 0 {
		return 0
	}
	total := 0
	for _, r := range reads {
		total += r.ReferenceEnd - r.ReferenceStart
	}
	return total / len(reads)
}

func (f *Fake) PeekReadLen(_ context.Context) (int, error) {
	if f.ReadLen > 0 {
		return f.ReadLen, nil
	}
	for _, r := range f.Reads {
		if r.QueryLength > 0 {
			return r.QueryLength, nil
		}
	}
	return 0, nil
}

type fakeIterator struct {
	reads []Read
	idx   int
}

func (it *fakeIterator) Scan() bool {
	it.idx++
	return it.idx < len(it.reads)
}

func (it *fakeIterator) Read() Read { return it.reads[it.idx] }
func (it *fakeIterator) Err() error { return nil }
func (it *fakeIterator) Close() error { return nil }
