package seq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/malabz/rama/utils"
)

func TestReplaceN(t *testing.T) {
	s := []byte("acgtN")
	replaceNWithRandomLetter(s)
	want := "ACGT"
	for i := 0; i < 4; i++ {
		if s[i] != want[i] {
			t.Fatalf("pos %d: got %c want %c", i, s[i], want[i])
		}
	}
	switch s[4] {
	case 'A', 'C', 'G', 'T':
	default:
		t.Fatalf("N replaced with %c", s[4])
	}
}

func TestConcat(t *testing.T) {
	data := []SequenceInfo{
		{Sequence: []byte("ACGT"), SeqLen: 4},
		{Sequence: []byte("GG"), SeqLen: 2},
	}
	concatData, err := Concat(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{'A', 'C', 'G', 'T', 1, 'G', 'G', 1, 0}
	if len(concatData) != len(want) {
		t.Fatalf("length got %d want %d", len(concatData), len(want))
	}
	for i := range want {
		if concatData[i] != want[i] {
			t.Fatalf("pos %d: got %d want %d", i, concatData[i], want[i])
		}
	}
}

func TestConcatEmptySequence(t *testing.T) {
	data := []SequenceInfo{
		{Sequence: []byte("ACGT"), SeqLen: 4},
		{Sequence: nil, SeqLen: 0},
	}
	_, err := Concat(data)
	if errors.Cause(err) != utils.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConcatIllegalByte(t *testing.T) {
	data := []SequenceInfo{
		{Sequence: []byte("ACXT"), SeqLen: 4},
		{Sequence: []byte("GG"), SeqLen: 2},
	}
	_, err := Concat(data)
	if errors.Cause(err) != utils.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReadDataPath(t *testing.T) {
	dir := t.TempDir()
	refFn := filepath.Join(dir, "ref.fa")
	queryFn := filepath.Join(dir, "query.fa")
	if err := os.WriteFile(refFn, []byte(">ref desc\nACGTacgt\nACGT\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(queryFn, []byte(">query\nGGNCC\n"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := ReadDataPath(refFn, queryFn)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 sequences, got %d", len(data))
	}
	if data[0].SeqLen != 12 {
		t.Fatalf("ref length got %d want 12", data[0].SeqLen)
	}
	if string(data[0].Sequence[:8]) != "ACGTACGT" {
		t.Fatalf("ref sequence got %s", data[0].Sequence[:8])
	}
	if data[1].SeqLen != 5 {
		t.Fatalf("query length got %d want 5", data[1].SeqLen)
	}
}
