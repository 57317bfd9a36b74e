// Package seq loads FASTA sequences and builds the concatenated text the
// suffix array is computed over.
package seq

import (
	"io"
	"math/rand"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"

	"github.com/malabz/rama/utils"
)

// Separator and sentinel bytes of the concatenated text. Both sort below
// every sequence byte.
const (
	Separator = 1
	Sentinel  = 0
)

type SequenceInfo struct {
	Sequence []byte
	Header   string
	SeqLen   int
}

var bases = []byte("ACGT")

// replaceNWithRandomLetter uppercases s in place and substitutes every N
// with a uniformly random base.
func replaceNWithRandomLetter(s []byte) {
	for i, c := range s {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == 'N' {
			c = bases[rand.Intn(len(bases))]
		}
		s[i] = c
	}
}

func checkBases(s []byte) error {
	for i, c := range s {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return errors.Wrapf(utils.ErrInvalidInput, "illegal byte %q at offset %d", c, i)
		}
	}
	return nil
}

func readFirstRecord(fn string) (si SequenceInfo, err error) {
	infile, err := os.Open(fn)
	if err != nil {
		return si, errors.Wrapf(err, "open %s", fn)
	}
	defer infile.Close()
	fafp := fasta.NewReader(infile, linear.NewSeq("", nil, alphabet.DNA))
	s, err := fafp.Read()
	if err != nil {
		if err == io.EOF {
			return si, errors.Wrapf(utils.ErrInvalidInput, "no FASTA record in %s", fn)
		}
		return si, errors.Wrapf(err, "read %s", fn)
	}
	l := s.(*linear.Seq)
	si.Header = l.Name()
	si.Sequence = make([]byte, len(l.Seq))
	for j, v := range l.Seq {
		si.Sequence[j] = byte(v)
	}
	replaceNWithRandomLetter(si.Sequence)
	if err := checkBases(si.Sequence); err != nil {
		return si, errors.Wrapf(err, "file %s", fn)
	}
	si.SeqLen = len(si.Sequence)
	if si.SeqLen == 0 {
		return si, errors.Wrapf(utils.ErrInvalidInput, "empty sequence in %s", fn)
	}
	return si, nil
}

// ReadDataPath loads one sequence from each of the two FASTA files, the
// reference first.
func ReadDataPath(refFn, queryFn string) ([]SequenceInfo, error) {
	ref, err := readFirstRecord(refFn)
	if err != nil {
		return nil, err
	}
	query, err := readFirstRecord(queryFn)
	if err != nil {
		return nil, err
	}
	return []SequenceInfo{ref, query}, nil
}

// Concat joins the two sequences as S1 1 S2 1 0. The separator follows each
// sequence and the whole text ends with the sentinel, so len(T) = n1+n2+3.
func Concat(data []SequenceInfo) (concatData []byte, err error) {
	if len(data) != 2 {
		return nil, errors.Wrapf(utils.ErrInvalidInput, "need exactly 2 sequences, have %d", len(data))
	}
	totalLength := 0
	for i := 0; i < len(data); i++ {
		if data[i].SeqLen == 0 {
			return nil, errors.Wrapf(utils.ErrInvalidInput, "sequence %d is empty", i)
		}
		if err := checkBases(data[i].Sequence); err != nil {
			return nil, errors.Wrapf(err, "sequence %d", i)
		}
		totalLength += data[i].SeqLen + 1
	}
	totalLength++

	concatData = make([]byte, totalLength)
	index := 0
	for _, s := range data {
		copy(concatData[index:], s.Sequence)
		index += s.SeqLen
		concatData[index] = Separator
		index++
	}
	concatData[totalLength-1] = Sentinel
	return concatData, nil
}
