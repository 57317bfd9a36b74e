package rarematch

import (
	"math"
	"path/filepath"
	"testing"
)

func TestLCPIntervalWindow(t *testing.T) {
	lcp := []int{0, 3, 1, 2, 5}
	w := NewLCPInterval(lcp, 2)
	if w.MinLCP() != 0 {
		t.Fatalf("initial min got %d want 0", w.MinLCP())
	}
	w.SlideRight()
	if w.MinLCP() != 1 {
		t.Fatalf("min after slide got %d want 1", w.MinLCP())
	}
	w.SlideRight()
	if w.MinLCP() != 1 {
		t.Fatalf("min after slide got %d want 1", w.MinLCP())
	}
	w.SlideRight()
	if w.MinLCP() != 2 {
		t.Fatalf("min after slide got %d want 2", w.MinLCP())
	}
	if !w.IsRightAtEnd() {
		t.Fatalf("window should be at end")
	}
}

func TestLCPIntervalWidthOne(t *testing.T) {
	lcp := []int{4, 2, 7}
	w := NewLCPInterval(lcp, 1)
	if w.MinLCP() != 4 {
		t.Fatalf("width-1 min got %d want 4", w.MinLCP())
	}
	w.SlideRight()
	if w.MinLCP() != 2 {
		t.Fatalf("width-1 min got %d want 2", w.MinLCP())
	}
}

func TestIsRareInterval(t *testing.T) {
	// plateau [1..2] with min 3 flanked by 0 and 2
	lcp := []int{0, 3, 4, 2}
	w := NewLCPInterval(lcp, 2)
	w.SlideRight()
	if l, r := w.Boundary(); l != 1 || r != 2 {
		t.Fatalf("boundary got (%d, %d)", l, r)
	}
	if !w.IsRareInterval() {
		t.Fatalf("maximal plateau not detected as rare")
	}
	// window [2..3]: LCP[1] = 3 >= min 2 on the left
	w.SlideRight()
	if w.IsRareInterval() {
		t.Fatalf("non-maximal window detected as rare")
	}
}

func TestFindRareMatchTiny(t *testing.T) {
	// T = AC 1 AC 1 0, windows cover both copies of AC
	concatData := []byte{'A', 'C', 1, 'A', 'C', 1, 0}
	sa := []int{3, 0, 4, 1}
	lcp := []int{0, 2, 0, 1}
	da := []int{1, 0, 1, 0}
	f := NewFinder(concatData, sa, lcp, da, 0, 2, 3, 2)
	pairs := f.FindRareMatch(2)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d: %v", len(pairs), pairs)
	}
	p := pairs[0]
	if p.FirstPos != 0 || p.SecondPos != 3 || p.MatchLength != 2 {
		t.Fatalf("got pair %+v", p)
	}
	if p.Weight != 2 {
		t.Fatalf("weight got %v want 2", p.Weight)
	}
}

func TestLeftExpand(t *testing.T) {
	// GAC 1 GAC 1 0 with the match found at the C positions
	concatData := []byte{'G', 'A', 'C', 1, 'G', 'A', 'C', 1, 0}
	f := NewFinder(concatData, nil, nil, nil, 0, 3, 4, 3)
	matchPos := []int{2, 6}
	expand := f.leftExpand(matchPos)
	if expand != 2 {
		t.Fatalf("expand got %d want 2", expand)
	}
	if matchPos[0] != 0 || matchPos[1] != 4 {
		t.Fatalf("positions after expand got %v", matchPos)
	}
}

func TestLeftExpandStopsOnMismatch(t *testing.T) {
	// TAC 1 GAC 1 0: expansion by one hits T vs G
	concatData := []byte{'T', 'A', 'C', 1, 'G', 'A', 'C', 1, 0}
	f := NewFinder(concatData, nil, nil, nil, 0, 3, 4, 3)
	matchPos := []int{2, 6}
	if expand := f.leftExpand(matchPos); expand != 1 {
		t.Fatalf("expand got %d want 1", expand)
	}
	if matchPos[0] != 1 || matchPos[1] != 5 {
		t.Fatalf("positions after expand got %v", matchPos)
	}
}

func TestGapCost(t *testing.T) {
	if gapCost(10, 10) != 0 {
		t.Fatalf("equal gaps must cost 0")
	}
	want := 2 * math.Log2(8)
	if got := gapCost(3, 10); got != want {
		t.Fatalf("gapCost(3, 10) got %v want %v", got, want)
	}
	if gapCost(10, 3) != gapCost(3, 10) {
		t.Fatalf("gapCost must be symmetric")
	}
}

func TestFindOptimalPairsChaining(t *testing.T) {
	pairs := []RareMatchPair{
		{FirstPos: 0, SecondPos: 0, MatchLength: 4, Weight: 4},
		{FirstPos: 2, SecondPos: 2, MatchLength: 4, Weight: 10},
		{FirstPos: 10, SecondPos: 10, MatchLength: 3, Weight: 3},
	}
	got := findOptimalPairs(pairs)
	// pair 1 overlaps pair 0, so the best chain is 1 then 2
	if len(got) != 2 {
		t.Fatalf("expected chain of 2, got %v", got)
	}
	if got[0].FirstPos != 2 || got[1].FirstPos != 10 {
		t.Fatalf("chain order got %v", got)
	}
}

func TestFindOptimalPairsFloor(t *testing.T) {
	// the successor's weight cannot pay its gap cost, yet extending the
	// chain must still beat the bare predecessor
	pairs := []RareMatchPair{
		{FirstPos: 0, SecondPos: 0, MatchLength: 2, Weight: 5},
		{FirstPos: 100, SecondPos: 2000, MatchLength: 2, Weight: 1},
	}
	got := findOptimalPairs(pairs)
	if len(got) != 2 {
		t.Fatalf("expected floored chain of 2, got %v", got)
	}
}

func TestFindOptimalPairsEmpty(t *testing.T) {
	if got := findOptimalPairs(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "anchors.csv")
	pairs := []RareMatchPair{
		{FirstPos: 0, SecondPos: 9, MatchLength: 8, Weight: 8},
		{FirstPos: 12, SecondPos: 21, MatchLength: 3, Weight: 1.5},
	}
	SaveRareMatchPairsToCSV(pairs, fn, 8)
	got, err := ReadRareMatchPairsFromCSV(fn, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(pairs) {
		t.Fatalf("round trip length got %d want %d", len(got), len(pairs))
	}
	for i := range pairs {
		if got[i] != pairs[i] {
			t.Fatalf("pair %d got %+v want %+v", i, got[i], pairs[i])
		}
	}
}
