// Package anchor builds the recursive anchor tree over two sequences and
// emits the final collinear anchor chain.
package anchor

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/malabz/rama/gsa"
	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/rarematch"
	"github.com/malabz/rama/rmq"
	"github.com/malabz/rama/seq"
	"github.com/malabz/rama/utils"
)

// Interval is a pair of sub-intervals, one per sequence, in sequence-local
// coordinates.
type Interval struct {
	Pos1 int
	Len1 int
	Pos2 int
	Len2 int
}

func SaveIntervalsToCSV(intervals []Interval, filename string) {
	fp, err := os.Create(filename)
	if err != nil {
		log.Fatalf("[SaveIntervalsToCSV] create file: %s failed, err: %v\n", filename, err)
	}
	defer fp.Close()
	w := bufio.NewWriter(fp)
	defer w.Flush()
	fmt.Fprintf(w, "Index,FirstStart,FirstLength,SecondStart,SecondLength\n")
	for i, iv := range intervals {
		fmt.Fprintf(w, "%d,%d,%d,%d,%d\n", i+1, iv.Pos1, iv.Len1, iv.Pos2, iv.Len2)
	}
	fmt.Printf("[SaveIntervalsToCSV] %s has been saved\n", filename)
}

// Anchor is one node of the recursion tree. Children[i] explores the gap
// before RareMatchPairs[i]; the last child explores the tail gap.
type Anchor struct {
	Depth          int
	Parent         *Anchor
	Children       []*Anchor
	Interval       Interval
	RareMatchPairs []rarematch.RareMatchPair
}

// MergeRareMatchPairs flattens the subtree depth first, interleaving each
// child's result with the pair whose gap that child explored.
func (a *Anchor) MergeRareMatchPairs() []rarematch.RareMatchPair {
	var merged []rarematch.RareMatchPair
	for i, child := range a.Children {
		merged = append(merged, child.MergeRareMatchPairs()...)
		if i < len(a.RareMatchPairs) {
			merged = append(merged, a.RareMatchPairs[i])
		}
	}
	return merged
}

// AnchorFinder owns the concatenated text, the generalized suffix array and
// the RMQ over its LCP, and drives the recursive anchor search.
type AnchorFinder struct {
	concatData   []byte
	firstSeqLen  int
	secondSeqLen int

	gsa *gsa.GSA
	rmq *rmq.LinearSparseTable

	pl            *pool.Pool
	maxMatchCount int
	maxDepth      int

	totalSubSuffixArray int64

	root *Anchor
}

// NewAnchorFinder concatenates the two sequences and constructs all index
// structures from scratch. maxDepth == 0 means unlimited recursion.
func NewAnchorFinder(data []seq.SequenceInfo, pl *pool.Pool, maxMatchCount, maxDepth int) (*AnchorFinder, error) {
	if len(data) != 2 {
		return nil, errors.Wrapf(utils.ErrInvalidInput, "need exactly 2 sequences, got %d", len(data))
	}
	concatData, err := seq.Concat(data)
	if err != nil {
		return nil, err
	}
	f := &AnchorFinder{
		concatData:    concatData,
		firstSeqLen:   data[0].SeqLen,
		secondSeqLen:  data[1].SeqLen,
		pl:            pl,
		maxMatchCount: utils.MaxInt(maxMatchCount, 2),
		maxDepth:      maxDepth,
	}
	fmt.Printf("[NewAnchorFinder] the concated data length is %d\n", len(concatData))
	f.gsa = gsa.Build(concatData, f.firstSeqLen, pl)
	t0 := time.Now()
	f.rmq = rmq.New(f.gsa.LCP, pl)
	fmt.Printf("[NewAnchorFinder] construct sparse table used: %v\n", time.Since(t0))
	return f, nil
}

// LoadAnchorFinder restores the index structures from a cache file and
// verifies them against the given sequences. Any mismatch surfaces as
// ErrCorruptCache so the caller can rebuild.
func LoadAnchorFinder(fn string, data []seq.SequenceInfo, pl *pool.Pool, maxMatchCount, maxDepth int) (*AnchorFinder, error) {
	if len(data) != 2 {
		return nil, errors.Wrapf(utils.ErrInvalidInput, "need exactly 2 sequences, got %d", len(data))
	}
	concatData, err := seq.Concat(data)
	if err != nil {
		return nil, err
	}
	f := &AnchorFinder{
		pl:            pl,
		maxMatchCount: utils.MaxInt(maxMatchCount, 2),
		maxDepth:      maxDepth,
	}
	if err := f.loadCache(fn); err != nil {
		return nil, err
	}
	if f.firstSeqLen != data[0].SeqLen || f.secondSeqLen != data[1].SeqLen ||
		!utils.BytesEqual(f.concatData, concatData) {
		return nil, errors.Wrapf(utils.ErrCorruptCache, "cached sequences differ from input %s", fn)
	}
	if err := f.gsa.Check(f.concatData, f.firstSeqLen); err != nil {
		return nil, err
	}
	fmt.Printf("[LoadAnchorFinder] anchor finder is loaded from %s\n", fn)
	return f, nil
}

// LaunchAnchorSearching runs the recursive search from the whole-sequence
// interval, writes the first-level and final anchor CSV files under prefix,
// and returns the verified final chain.
func (f *AnchorFinder) LaunchAnchorSearching(prefix string) []rarematch.RareMatchPair {
	fmt.Printf("[LaunchAnchorSearching] begin to search anchors\n")
	t0 := time.Now()
	atomic.StoreInt64(&f.totalSubSuffixArray, 0)
	root := &Anchor{Interval: Interval{Pos1: 0, Len1: f.firstSeqLen, Pos2: 0, Len2: f.secondSeqLen}}
	f.root = root
	f.pl.Submit(func() {
		f.locateAnchor(0, root, root.Interval)
	})
	f.pl.WaitAll()

	firstAnchors := root.RareMatchPairs
	rarematch.SaveRareMatchPairsToCSV(firstAnchors, prefix+".first_anchor.csv", f.firstSeqLen)

	finalAnchors := verifyAnchors(root.MergeRareMatchPairs())
	rarematch.SaveRareMatchPairsToCSV(finalAnchors, prefix+".final_anchor.csv", f.firstSeqLen)

	seqLen := f.firstSeqLen + f.secondSeqLen
	subLen := atomic.LoadInt64(&f.totalSubSuffixArray) - int64(seqLen)
	fmt.Printf("[LaunchAnchorSearching] new sub suffix array length is %d, %.3f of the original sequence length\n",
		subLen, float64(subLen)/float64(seqLen))
	fmt.Printf("[LaunchAnchorSearching] finish searching anchors, used: %v\n", time.Since(t0))
	return finalAnchors
}

// FinalIntervals derives the gap intervals left between the final anchors
// over the whole-sequence interval.
func (f *AnchorFinder) FinalIntervals(finalAnchors []rarematch.RareMatchPair) []Interval {
	root := Interval{Pos1: 0, Len1: f.firstSeqLen, Pos2: 0, Len2: f.secondSeqLen}
	return RareMatchPairs2Intervals(finalAnchors, root, f.firstSeqLen)
}

// locateAnchor projects the two sub-intervals through ISA into a restricted
// suffix array, searches it for a rare match chain and recurses into the
// gaps. Children are created serially before any child task is submitted.
func (f *AnchorFinder) locateAnchor(depth int, node *Anchor, interval Interval) {
	if f.maxDepth > 0 && depth >= f.maxDepth {
		return
	}
	firstSeqStart := interval.Pos1
	fstLen := interval.Len1
	secondSeqStart := interval.Pos2 + f.firstSeqLen + 1
	scdLen := interval.Len2
	if fstLen == 0 || scdLen == 0 {
		return
	}

	newArrayLen := fstLen + scdLen
	atomic.AddInt64(&f.totalSubSuffixArray, int64(newArrayLen))

	newIndexOfSA := make([]int, 0, newArrayLen)
	for i := firstSeqStart; i < firstSeqStart+fstLen; i++ {
		newIndexOfSA = append(newIndexOfSA, f.gsa.ISA[i])
	}
	for i := secondSeqStart; i < secondSeqStart+scdLen; i++ {
		newIndexOfSA = append(newIndexOfSA, f.gsa.ISA[i])
	}
	sort.Ints(newIndexOfSA)

	newSA := make([]int, newArrayLen)
	newLCP := make([]int, newArrayLen)
	newDA := make([]int, newArrayLen)
	newSA[0] = f.gsa.SA[newIndexOfSA[0]]
	newDA[0] = f.gsa.DA[newIndexOfSA[0]]
	for i := 1; i < newArrayLen; i++ {
		index := newIndexOfSA[i]
		newSA[i] = f.gsa.SA[index]
		newDA[i] = f.gsa.DA[index]
		newLCP[i] = f.rmq.QueryMin(newIndexOfSA[i-1]+1, index)
	}

	finder := rarematch.NewFinder(f.concatData, newSA, newLCP, newDA, firstSeqStart, fstLen, secondSeqStart, scdLen)
	optimalPairs := finder.FindRareMatch(f.maxMatchCount)
	if len(optimalPairs) == 0 {
		return
	}
	node.RareMatchPairs = optimalPairs

	rareMatchIntervals := RareMatchPairs2Intervals(optimalPairs, interval, f.firstSeqLen)
	newDepth := depth + 1
	for _, newInterval := range rareMatchIntervals {
		node.Children = append(node.Children, &Anchor{
			Depth:    newDepth,
			Parent:   node,
			Interval: newInterval,
		})
	}
	for _, child := range node.Children {
		child := child
		f.pl.Submit(func() {
			f.locateAnchor(newDepth, child, child.Interval)
		})
	}
}

// RareMatchPairs2Intervals walks the chain with one cursor per sequence and
// emits the gap before every pair plus the tail gap after the last one,
// clamped to length 0 when a cursor has run past the interval end. A cursor
// beyond the next pair start means overlapping anchors and is fatal.
func RareMatchPairs2Intervals(rareMatchPairs []rarematch.RareMatchPair, interval Interval, fstLength int) []Interval {
	if len(rareMatchPairs) == 0 {
		return []Interval{interval}
	}

	start1 := interval.Pos1
	end1 := interval.Pos1 + interval.Len1
	start2 := interval.Pos2 + fstLength + 1
	end2 := interval.Pos2 + fstLength + 1 + interval.Len2

	var intervals []Interval
	for _, pair := range rareMatchPairs {
		if start1 > pair.FirstPos || start2 > pair.SecondPos {
			log.Fatalf("[RareMatchPairs2Intervals] there is conflict in final anchors: cursor (%d, %d) pair (%d, %d)\n",
				start1, start2, pair.FirstPos, pair.SecondPos)
		}
		intervals = append(intervals, Interval{
			Pos1: start1,
			Len1: pair.FirstPos - start1,
			Pos2: IndexFromGlobalToLocal(start2, fstLength),
			Len2: pair.SecondPos - start2,
		})
		start1 = pair.FirstPos + pair.MatchLength
		start2 = pair.SecondPos + pair.MatchLength
	}

	var end Interval
	if start1 >= end1 {
		end.Pos1 = end1 - 1
		end.Len1 = 0
	} else {
		end.Pos1 = start1
		end.Len1 = end1 - start1
	}
	if start2 >= end2 {
		end.Pos2 = IndexFromGlobalToLocal(end2-1, fstLength)
		end.Len2 = 0
	} else {
		end.Pos2 = IndexFromGlobalToLocal(start2, fstLength)
		end.Len2 = end2 - start2
	}
	return append(intervals, end)
}

// IndexFromGlobalToLocal strips the concatenation offset from positions that
// fall in the second sequence.
func IndexFromGlobalToLocal(index, fstLength int) int {
	if index > fstLength {
		return index - fstLength - 1
	}
	return index
}

// verifyAnchors sorts the merged chain, merges exactly adjacent pairs and
// refuses overlapping ones.
func verifyAnchors(rareMatchPairs []rarematch.RareMatchPair) []rarematch.RareMatchPair {
	if len(rareMatchPairs) == 0 {
		return rareMatchPairs
	}
	sortedPairs := make([]rarematch.RareMatchPair, len(rareMatchPairs))
	copy(sortedPairs, rareMatchPairs)
	sort.Slice(sortedPairs, func(i, j int) bool {
		return sortedPairs[i].Less(sortedPairs[j])
	})

	var verified []rarematch.RareMatchPair
	current := sortedPairs[0]
	for _, pair := range sortedPairs[1:] {
		switch {
		case current.HasOverlap(pair):
			log.Fatalf("[verifyAnchors] overlapping rare match pairs detected: %+v and %+v\n", current, pair)
		case current.IsAdjacent(pair):
			current.MergeWith(pair)
		default:
			verified = append(verified, current)
			current = pair
		}
	}
	return append(verified, current)
}
