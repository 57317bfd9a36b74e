package rarematch

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/malabz/rama/utils"
)

// chainScoreFloor is the score granted to a compatible predecessor whose
// marginal gain would otherwise be non-positive, so that extending a chain
// stays preferable to restarting it.
const chainScoreFloor = 0.1

// Finder locates rare matches in a restricted suffix array slice covering
// one window in each sequence. Start positions are global offsets into the
// concatenated text.
type Finder struct {
	concatData []byte
	sa         []int
	lcp        []int
	da         []int

	firstSeqStart  int
	firstSeqLen    int
	secondSeqStart int
	secondSeqLen   int

	minSeqLen int
}

func NewFinder(concatData []byte, sa, lcp, da []int, firstSeqStart, firstSeqLen, secondSeqStart, secondSeqLen int) *Finder {
	return &Finder{
		concatData:     concatData,
		sa:             sa,
		lcp:            lcp,
		da:             da,
		firstSeqStart:  firstSeqStart,
		firstSeqLen:    firstSeqLen,
		secondSeqStart: secondSeqStart,
		secondSeqLen:   secondSeqLen,
		minSeqLen:      utils.MinInt(firstSeqLen, secondSeqLen),
	}
}

// getMinMatchLength caps a match so no occurrence runs past the end of its
// window. Every position must lie inside its window.
func (f *Finder) getMinMatchLength(matchPos []int) int {
	minMatchLength := math.MaxInt64
	for _, pos := range matchPos {
		if pos >= f.secondSeqStart {
			if pos >= f.secondSeqStart+f.secondSeqLen {
				panic(errors.Wrapf(utils.ErrInternal, "position %d beyond second window [%d, %d)",
					pos, f.secondSeqStart, f.secondSeqStart+f.secondSeqLen))
			}
			minMatchLength = utils.MinInt(minMatchLength, f.secondSeqStart+f.secondSeqLen-pos)
		} else {
			if pos < f.firstSeqStart || pos >= f.firstSeqStart+f.firstSeqLen {
				panic(errors.Wrapf(utils.ErrInternal, "position %d beyond first window [%d, %d)",
					pos, f.firstSeqStart, f.firstSeqStart+f.firstSeqLen))
			}
			minMatchLength = utils.MinInt(minMatchLength, f.firstSeqStart+f.firstSeqLen-pos)
		}
	}
	return minMatchLength
}

// FindRareMatch enumerates LCP windows of growing width until some width
// yields at least one match present in both sequences, then expands,
// enumerates pairs and chains them.
func (f *Finder) FindRareMatch(maxMatchCount int) []RareMatchPair {
	maxMatchCount = utils.MinInt(maxMatchCount, f.minSeqLen)
	isMatchFound := false
	rareMatchMap := make(map[int]RareMatch)

	for lcpIntervalSize := 0; !isMatchFound && lcpIntervalSize < maxMatchCount; {
		lcpIntervalSize++
		lcpInterval := NewLCPInterval(f.lcp, lcpIntervalSize)
		for !lcpInterval.IsRightAtEnd() {
			if lcpInterval.IsRareInterval() {
				left, right := lcpInterval.Boundary()
				matchPos, posType := f.getMatchPosAndType(left, right)
				matchLength := utils.MinInt(lcpInterval.MinLCP(), f.getMinMatchLength(matchPos))
				rareMatch := newRareMatch(matchLength, matchPos, posType)
				if rareMatch.FirstCount > 0 && rareMatch.SecondCount > 0 {
					isMatchFound = true
					if old, ok := rareMatchMap[rareMatch.MinKey]; !ok || old.MatchLength < matchLength {
						rareMatchMap[rareMatch.MinKey] = rareMatch
					}
				}
			}
			lcpInterval.SlideRight()
		}
	}

	f.leftExpandRareMatchMap(rareMatchMap)
	rareMatchPairs := f.convertMapToPairs(rareMatchMap)
	sort.Slice(rareMatchPairs, func(i, j int) bool {
		return rareMatchPairs[i].Less(rareMatchPairs[j])
	})
	return findOptimalPairs(rareMatchPairs)
}

// getMatchPosAndType collects the suffixes of the window. An LCP window of
// width w spans w+1 adjacent suffixes, so the left boundary steps back by
// one when possible.
func (f *Finder) getMatchPosAndType(left, right int) (matchPos []int, posType []bool) {
	if left > 0 {
		left--
	}
	for i := left; i <= right; i++ {
		matchPos = append(matchPos, f.sa[i])
		posType = append(posType, f.da[i] != 0)
	}
	return matchPos, posType
}

func (f *Finder) leftExpandRareMatchMap(rareMatchMap map[int]RareMatch) {
	for key, rareMatch := range rareMatchMap {
		rareMatch.MatchLength += f.leftExpand(rareMatch.MatchPos)
		rareMatchMap[key] = rareMatch
	}
}

// leftExpand grows every occurrence leftward while all of them carry the
// same byte, bounded by the distance of each occurrence to its window
// start. The positions are shifted in place and the expansion is returned.
func (f *Finder) leftExpand(matchPos []int) int {
	if len(matchPos) == 0 {
		return 0
	}
	maxExpandLength := math.MaxInt64
	for _, pos := range matchPos {
		if pos >= f.secondSeqStart {
			maxExpandLength = utils.MinInt(maxExpandLength, pos-f.secondSeqStart)
		} else {
			maxExpandLength = utils.MinInt(maxExpandLength, pos-f.firstSeqStart)
		}
	}

	expandLength := 0
	for expandLength < maxExpandLength {
		expandLength++
		if matchPos[0] < expandLength {
			expandLength--
			break
		}
		curChar := f.concatData[matchPos[0]-expandLength]
		allCharSame := true
		for i := 1; i < len(matchPos); i++ {
			if matchPos[i] < expandLength || f.concatData[matchPos[i]-expandLength] != curChar {
				allCharSame = false
				break
			}
		}
		if !allCharSame {
			expandLength--
			break
		}
	}

	for i := range matchPos {
		matchPos[i] -= expandLength
	}
	return expandLength
}

// convertMapToPairs emits the cartesian product of first-sequence and
// second-sequence occurrences of every kept match. The weight keeps the
// truncating division of the occurrence-count ratio.
func (f *Finder) convertMapToPairs(rareMatchMap map[int]RareMatch) []RareMatchPair {
	keys := make([]int, 0, len(rareMatchMap))
	for key := range rareMatchMap {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	var pairs []RareMatchPair
	for _, key := range keys {
		match := rareMatchMap[key]
		var firstSeqPositions, secondSeqPositions []int
		for i := 0; i < len(match.MatchPos); i++ {
			if !match.PosType[i] {
				firstSeqPositions = append(firstSeqPositions, match.MatchPos[i])
			} else {
				secondSeqPositions = append(secondSeqPositions, match.MatchPos[i])
			}
		}
		weight := float64(match.MatchLength / utils.MinInt(match.FirstCount, match.SecondCount))
		for _, firstPos := range firstSeqPositions {
			for _, secondPos := range secondSeqPositions {
				pairs = append(pairs, RareMatchPair{
					FirstPos:    firstPos,
					SecondPos:   secondPos,
					MatchLength: match.MatchLength,
					Weight:      weight,
				})
			}
		}
	}
	return pairs
}

// gapCost penalizes the difference between the two axis gaps, measured
// start to start.
func gapCost(firstGap, secondGap int) float64 {
	if firstGap == secondGap {
		return 0
	}
	return 2 * math.Log2(float64(utils.AbsInt(firstGap-secondGap))+1)
}

// findOptimalPairs selects the maximum-score chain monotone in both
// coordinates by weighted LIS with backtracking.
func findOptimalPairs(rareMatchPairs []RareMatchPair) []RareMatchPair {
	if len(rareMatchPairs) == 0 {
		return nil
	}
	scores := make([]float64, len(rareMatchPairs))
	backtracks := make([]int, len(rareMatchPairs))
	for i := range backtracks {
		backtracks[i] = -1
	}
	scores[0] = rareMatchPairs[0].Weight

	for i := 1; i < len(rareMatchPairs); i++ {
		scores[i] = rareMatchPairs[i].Weight
		for j := i - 1; j >= 0; j-- {
			if rareMatchPairs[i].FirstPos >= rareMatchPairs[j].FirstPos+rareMatchPairs[j].MatchLength &&
				rareMatchPairs[i].SecondPos >= rareMatchPairs[j].SecondPos+rareMatchPairs[j].MatchLength {
				firstGap := rareMatchPairs[i].FirstPos - rareMatchPairs[j].FirstPos
				secondGap := rareMatchPairs[i].SecondPos - rareMatchPairs[j].SecondPos
				cost := gapCost(firstGap, secondGap)
				var newScore float64
				if rareMatchPairs[i].Weight-cost > 0 {
					newScore = scores[j] + rareMatchPairs[i].Weight - cost
				} else {
					newScore = scores[j] + chainScoreFloor
				}
				if newScore > scores[i] {
					scores[i] = newScore
					backtracks[i] = j
				}
			}
		}
	}

	maxIndex := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[maxIndex] {
			maxIndex = i
		}
	}

	var optimalPairs []RareMatchPair
	for i := maxIndex; i != -1; i = backtracks[i] {
		optimalPairs = append(optimalPairs, rareMatchPairs[i])
	}
	for i, j := 0, len(optimalPairs)-1; i < j; i, j = i+1, j-1 {
		optimalPairs[i], optimalPairs[j] = optimalPairs[j], optimalPairs[i]
	}
	return optimalPairs
}
