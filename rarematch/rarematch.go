// Package rarematch extracts rare exact matches from a restricted suffix
// array and chains them into an anchor candidate list.
package rarematch

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// RareMatch is a repeat of MatchLength occurring at MatchPos positions of
// the concatenated text, with PosType marking second-sequence positions.
type RareMatch struct {
	FirstCount  int
	SecondCount int
	MatchLength int
	MatchPos    []int
	PosType     []bool
	MinKey      int
}

func newRareMatch(matchLength int, matchPos []int, posType []bool) RareMatch {
	rm := RareMatch{MatchLength: matchLength, MatchPos: matchPos, PosType: posType}
	minPos := matchPos[0]
	for _, p := range matchPos[1:] {
		if p < minPos {
			minPos = p
		}
	}
	rm.MinKey = minPos + matchLength
	for _, t := range posType {
		if !t {
			rm.FirstCount++
		}
	}
	rm.SecondCount = len(posType) - rm.FirstCount
	return rm
}

// RareMatchPair picks one position from each sequence of a RareMatch.
// SecondPos is global in the concatenated text.
type RareMatchPair struct {
	FirstPos    int
	SecondPos   int
	MatchLength int
	Weight      float64
}

func (p RareMatchPair) Less(other RareMatchPair) bool {
	if p.FirstPos != other.FirstPos {
		return p.FirstPos < other.FirstPos
	}
	return p.SecondPos < other.SecondPos
}

// IsAdjacent reports whether next starts exactly where p ends in both
// sequences.
func (p RareMatchPair) IsAdjacent(next RareMatchPair) bool {
	return p.FirstPos+p.MatchLength == next.FirstPos &&
		p.SecondPos+p.MatchLength == next.SecondPos
}

func (p RareMatchPair) HasOverlap(next RareMatchPair) bool {
	return p.FirstPos+p.MatchLength > next.FirstPos ||
		p.SecondPos+p.MatchLength > next.SecondPos
}

func (p *RareMatchPair) MergeWith(next RareMatchPair) {
	p.MatchLength += next.MatchLength
}

// SaveRareMatchPairsToCSV writes pairs with the second position converted
// back to a sequence-local coordinate.
func SaveRareMatchPairsToCSV(pairs []RareMatchPair, filename string, fstLen int) {
	fp, err := os.Create(filename)
	if err != nil {
		log.Fatalf("[SaveRareMatchPairsToCSV] create file: %s failed, err: %v\n", filename, err)
	}
	defer fp.Close()
	w := bufio.NewWriter(fp)
	defer w.Flush()
	fmt.Fprintf(w, "Index,FirstPos,SecondPos,MatchLength,Weight\n")
	for i, pair := range pairs {
		fmt.Fprintf(w, "%d,%d,%d,%d,%v\n", i+1, pair.FirstPos, pair.SecondPos-fstLen-1, pair.MatchLength, pair.Weight)
	}
	fmt.Printf("[SaveRareMatchPairsToCSV] %s has been saved\n", filename)
}

// ReadRareMatchPairsFromCSV loads pairs written by SaveRareMatchPairsToCSV,
// restoring the global second position.
func ReadRareMatchPairsFromCSV(filename string, fstLen int) (pairs []RareMatchPair, err error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	reader := bufio.NewReader(fp)
	if _, err := reader.ReadString('\n'); err != nil {
		return nil, err
	}
	for {
		line, err := reader.ReadString('\n')
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) < 5 {
			continue
		}
		var pair RareMatchPair
		if pair.FirstPos, err = strconv.Atoi(fields[1]); err != nil {
			return nil, err
		}
		if pair.SecondPos, err = strconv.Atoi(fields[2]); err != nil {
			return nil, err
		}
		pair.SecondPos += fstLen + 1
		if pair.MatchLength, err = strconv.Atoi(fields[3]); err != nil {
			return nil, err
		}
		if pair.Weight, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
