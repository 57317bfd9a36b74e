package align

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/brotli/go/cbrotli"
	"github.com/pkg/errors"

	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/rarematch"
	"github.com/malabz/rama/seq"
	"github.com/malabz/rama/utils"
)

func testAligner() *PairAligner {
	return NewPairAligner(utils.DefaultCfg(), pool.New(0))
}

func seqInfo(header, s string) seq.SequenceInfo {
	return seq.SequenceInfo{Sequence: []byte(s), Header: header, SeqLen: len(s)}
}

func TestCigarPackUnpack(t *testing.T) {
	cases := []struct {
		operation byte
		length    uint32
	}{
		{'M', 3}, {'I', 1}, {'D', 250}, {'=', 100}, {'X', 7},
	}
	for _, c := range cases {
		operation, length := IntToCigar(CigarToInt(c.operation, c.length))
		if operation != c.operation || length != c.length {
			t.Errorf("pack %c%d, unpack %c%d", c.operation, c.length, operation, length)
		}
	}
	if operation, _ := IntToCigar(CigarToInt('Z', 1)); operation != '?' {
		t.Errorf("unknown operation should unpack to '?', got %c", operation)
	}
}

func TestCigarString(t *testing.T) {
	c := Cigar{CigarToInt('=', 4), CigarToInt('X', 1), CigarToInt('I', 12)}
	if got := c.String(); got != "4=1X12I" {
		t.Errorf("cigar string is %s, want 4=1X12I", got)
	}
}

func TestAlignIdentical(t *testing.T) {
	pa := testAligner()
	c := pa.alignGapAffine2Piece([]byte("ACGTACGT"), []byte("ACGTACGT"))
	if got := c.String(); got != "8=" {
		t.Errorf("cigar is %s, want 8=", got)
	}
}

func TestAlignSingleMismatch(t *testing.T) {
	pa := testAligner()
	c := pa.alignGapAffine2Piece([]byte("ACGTACGT"), []byte("ACGTTCGT"))
	if got := c.String(); got != "4=1X3=" {
		t.Errorf("cigar is %s, want 4=1X3=", got)
	}
}

func TestAlignInsertion(t *testing.T) {
	pa := testAligner()
	seq1 := []byte("ACGTACGT")
	seq2 := []byte("ACGTCACGT")
	c := pa.alignGapAffine2Piece(seq1, seq2)
	if got := c.String(); got != "4=1I4=" {
		t.Errorf("cigar is %s, want 4=1I4=", got)
	}
	if err := VerifyCigar(c, seq1, seq2); err != nil {
		t.Errorf("verify failed: %v", err)
	}
}

func TestAlignDeletion(t *testing.T) {
	pa := testAligner()
	seq1 := []byte("ACGTCACGT")
	seq2 := []byte("ACGTACGT")
	c := pa.alignGapAffine2Piece(seq1, seq2)
	if got := c.String(); got != "4=1D4=" {
		t.Errorf("cigar is %s, want 4=1D4=", got)
	}
}

func TestAlignLongGapUsesSecondPiece(t *testing.T) {
	pa := testAligner()
	seq1 := []byte("ACGTACGTACGT")
	seq2 := []byte("ACGTAC" + strings.Repeat("A", 10) + "GTACGT")
	c := pa.alignGapAffine2Piece(seq1, seq2)
	if got := c.String(); got != "6=10I6=" {
		t.Errorf("cigar is %s, want 6=10I6=", got)
	}
	if err := VerifyCigar(c, seq1, seq2); err != nil {
		t.Errorf("verify failed: %v", err)
	}
}

func TestAlignEmptySides(t *testing.T) {
	pa := testAligner()
	if got := pa.alignGapAffine2Piece(nil, []byte("ACG")).String(); got != "3I" {
		t.Errorf("empty first side gives %s, want 3I", got)
	}
	if got := pa.alignGapAffine2Piece([]byte("ACG"), nil).String(); got != "3D" {
		t.Errorf("empty second side gives %s, want 3D", got)
	}
}

func TestHeadToHeadCigar(t *testing.T) {
	long := "ACG" + strings.Repeat("T", 147)
	c := headToHeadCigar([]byte("ACG"), []byte(long))
	if got := c.String(); got != "3=147I" {
		t.Errorf("cigar is %s, want 3=147I", got)
	}
	c = headToHeadCigar([]byte(long), []byte("AGG"))
	if got := c.String(); got != "1=1X1=147D" {
		t.Errorf("cigar is %s, want 1=1X1=147D", got)
	}
}

func TestVerifyCigarDetectsBadMatch(t *testing.T) {
	c := Cigar{CigarToInt('=', 3)}
	err := VerifyCigar(c, []byte("ACG"), []byte("ATG"))
	if errors.Cause(err) != utils.ErrInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestVerifyCigarDetectsShortConsumption(t *testing.T) {
	c := Cigar{CigarToInt('=', 2)}
	err := VerifyCigar(c, []byte("ACG"), []byte("ACG"))
	if errors.Cause(err) != utils.ErrInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestGappedSequences(t *testing.T) {
	c := Cigar{CigarToInt('=', 2), CigarToInt('I', 3), CigarToInt('X', 1), CigarToInt('D', 2)}
	aligned1, aligned2 := gappedSequences(c, []byte("ACTGG"), []byte("ACAAAG"))
	if string(aligned1) != "AC---TGG" {
		t.Errorf("gapped first sequence is %s, want AC---TGG", aligned1)
	}
	if string(aligned2) != "ACAAAG--" {
		t.Errorf("gapped second sequence is %s, want ACAAAG--", aligned2)
	}
}

func TestAlignPairSeq(t *testing.T) {
	data := []seq.SequenceInfo{
		seqInfo("ref", "AAAATTTTGGGG"),
		seqInfo("query", "AAAACCCCGGGG"),
	}
	anchors := []rarematch.RareMatchPair{
		{FirstPos: 0, SecondPos: 0 + data[0].SeqLen + 1, MatchLength: 4},
		{FirstPos: 8, SecondPos: 8 + data[0].SeqLen + 1, MatchLength: 4},
	}
	prefix := filepath.Join(t.TempDir(), "pair")
	pa := testAligner()
	combined, err := pa.AlignPairSeq(data, anchors, prefix)
	if err != nil {
		t.Fatalf("AlignPairSeq failed: %v", err)
	}
	if got := combined.String(); got != "4=4X4=" {
		t.Errorf("combined cigar is %s, want 4=4X4=", got)
	}
	for _, suffix := range []string{".interval.csv", ".confidence.csv", ".cigar", ".fa.br", ".sam"} {
		if _, err := os.Stat(prefix + suffix); err != nil {
			t.Errorf("output %s%s missing: %v", prefix, suffix, err)
		}
	}

	raw, err := os.ReadFile(prefix + ".cigar")
	if err != nil {
		t.Fatalf("read cigar text: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "4=4X4=" {
		t.Errorf("cigar text is %q, want 4=4X4=", strings.TrimSpace(string(raw)))
	}

	confidence, err := os.ReadFile(prefix + ".confidence.csv")
	if err != nil {
		t.Fatalf("read confidence csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(confidence)), "\n")
	want := []string{"cigar,confidence,rare match", "4=,1,1", "4X,1,0", "4=,1,1"}
	if len(lines) != len(want) {
		t.Fatalf("confidence csv has %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i, line := range lines {
		if line != want[i] {
			t.Errorf("confidence line %d is %q, want %q", i, line, want[i])
		}
	}
}

func TestAlignPairSeqNoAnchors(t *testing.T) {
	data := []seq.SequenceInfo{
		seqInfo("ref", "ACGTACGT"),
		seqInfo("query", "ACGTTCGT"),
	}
	prefix := filepath.Join(t.TempDir(), "noanchor")
	pa := testAligner()
	combined, err := pa.AlignPairSeq(data, nil, prefix)
	if err != nil {
		t.Fatalf("AlignPairSeq failed: %v", err)
	}
	if got := combined.String(); got != "4=1X3=" {
		t.Errorf("combined cigar is %s, want 4=1X3=", got)
	}
}

func TestCigarToFastaRoundTrip(t *testing.T) {
	data := []seq.SequenceInfo{
		seqInfo("ref", "ACGTACGT"),
		seqInfo("query", "ACGTCACGT"),
	}
	c := Cigar{CigarToInt('=', 4), CigarToInt('I', 1), CigarToInt('=', 4)}
	fn := filepath.Join(t.TempDir(), "aligned.fa.br")
	CigarToFasta(c, data, fn)

	fp, err := os.Open(fn)
	if err != nil {
		t.Fatalf("open %s: %v", fn, err)
	}
	defer fp.Close()
	br := cbrotli.NewReader(fp)
	defer br.Close()
	content, err := io.ReadAll(br)
	if err != nil {
		t.Fatalf("decompress %s: %v", fn, err)
	}
	wantText := ">ref\nACGT-ACGT\n>query\nACGTCACGT\n"
	if string(content) != wantText {
		t.Errorf("gapped fasta is %q, want %q", content, wantText)
	}
}

func TestWriteSAM(t *testing.T) {
	data := []seq.SequenceInfo{
		seqInfo("ref", "ACGTACGT"),
		seqInfo("query", "ACGTACGT"),
	}
	c := Cigar{CigarToInt('=', 8)}
	fn := filepath.Join(t.TempDir(), "aligned.sam")
	WriteSAM(c, data, fn)

	raw, err := os.ReadFile(fn)
	if err != nil {
		t.Fatalf("read %s: %v", fn, err)
	}
	text := string(raw)
	if !strings.Contains(text, "query") || !strings.Contains(text, "8=") {
		t.Errorf("sam output missing record fields:\n%s", text)
	}
}
