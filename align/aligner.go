package align

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/malabz/rama/anchor"
	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/rarematch"
	"github.com/malabz/rama/seq"
	"github.com/malabz/rama/utils"
)

// shortSideMax and longSideMin bound the degenerate-interval shortcut: when
// one side of a gap is this short and the other this long, a banded alignment
// would be all gap anyway, so the short side is matched head to head and the
// rest emitted as one long gap run.
const (
	shortSideMax = 5
	longSideMin  = 100
)

// PairAligner aligns the gap intervals between anchors under a two-piece
// gap-affine penalty and stitches the pieces into one whole-sequence CIGAR.
type PairAligner struct {
	match         int
	mismatch      int
	gapOpen1      int
	gapExtension1 int
	gapOpen2      int
	gapExtension2 int
	pl            *pool.Pool
}

func NewPairAligner(cfg utils.CfgInfo, pl *pool.Pool) *PairAligner {
	return &PairAligner{
		match:         cfg.Match,
		mismatch:      cfg.Mismatch,
		gapOpen1:      cfg.GapOpen1,
		gapExtension1: cfg.GapExtension1,
		gapOpen2:      cfg.GapOpen2,
		gapExtension2: cfg.GapExtension2,
		pl:            pl,
	}
}

// AlignPairSeq derives the gap intervals left by the anchor chain, aligns
// every interval, combines the interval CIGARs with the anchor matches and
// writes the interval CSV, confidence CSV, CIGAR text, compressed gapped
// FASTA and SAM files under prefix.
func (pa *PairAligner) AlignPairSeq(data []seq.SequenceInfo, anchors []rarematch.RareMatchPair, prefix string) (Cigar, error) {
	if len(data) != 2 {
		return nil, errors.Wrapf(utils.ErrInvalidInput, "pairwise alignment needs two sequences, got %d", len(data))
	}
	t0 := time.Now()
	root := anchor.Interval{Pos1: 0, Len1: data[0].SeqLen, Pos2: 0, Len2: data[1].SeqLen}
	intervals := anchor.RareMatchPairs2Intervals(anchors, root, data[0].SeqLen)
	anchor.SaveIntervalsToCSV(intervals, prefix+".interval.csv")

	cigars := pa.alignIntervals(data, intervals)
	fmt.Printf("[AlignPairSeq] finish aligning %d intervals, used: %v\n", len(intervals), time.Since(t0))

	combined := combineCigarsWithAnchors(cigars, anchors, prefix+".confidence.csv")
	if err := VerifyCigar(combined, data[0].Sequence, data[1].Sequence); err != nil {
		return nil, err
	}

	SaveCigarToTxt(combined, prefix+".cigar")
	CigarToFasta(combined, data, prefix+".fa.br")
	WriteSAM(combined, data, prefix+".sam")
	return combined, nil
}

// alignIntervals aligns every gap interval and returns the CIGARs indexed
// like the intervals. Degenerate intervals are handled inline, the rest are
// fanned out on the pool.
func (pa *PairAligner) alignIntervals(data []seq.SequenceInfo, intervals []anchor.Interval) []Cigar {
	cigars := make([]Cigar, len(intervals))
	for i, iv := range intervals {
		seq1 := data[0].Sequence[iv.Pos1 : iv.Pos1+iv.Len1]
		seq2 := data[1].Sequence[iv.Pos2 : iv.Pos2+iv.Len2]
		switch {
		case iv.Len1 == 0 && iv.Len2 == 0:
		case iv.Len1 == 0:
			cigars[i] = Cigar{CigarToInt('I', uint32(iv.Len2))}
		case iv.Len2 == 0:
			cigars[i] = Cigar{CigarToInt('D', uint32(iv.Len1))}
		case iv.Len1 <= shortSideMax && iv.Len2 > longSideMin:
			cigars[i] = headToHeadCigar(seq1, seq2)
		case iv.Len2 <= shortSideMax && iv.Len1 > longSideMin:
			cigars[i] = headToHeadCigar(seq1, seq2)
		default:
			i, seq1, seq2 := i, seq1, seq2
			pa.pl.Submit(func() {
				cigars[i] = pa.alignGapAffine2Piece(seq1, seq2)
			})
		}
	}
	pa.pl.WaitAll()
	return cigars
}

// headToHeadCigar matches the two substrings position by position over the
// shorter length and emits the surplus of the longer one as a single gap run.
func headToHeadCigar(seq1, seq2 []byte) Cigar {
	short := utils.MinInt(len(seq1), len(seq2))
	var c Cigar
	for p := 0; p < short; {
		q := p
		eq := seq1[p] == seq2[p]
		for q < short && (seq1[q] == seq2[q]) == eq {
			q++
		}
		if eq {
			c = append(c, CigarToInt('=', uint32(q-p)))
		} else {
			c = append(c, CigarToInt('X', uint32(q-p)))
		}
		p = q
	}
	if len(seq2) > short {
		c = append(c, CigarToInt('I', uint32(len(seq2)-short)))
	} else if len(seq1) > short {
		c = append(c, CigarToInt('D', uint32(len(seq1)-short)))
	}
	return c
}

// combineCigarsWithAnchors interleaves the interval CIGARs with a synthetic
// '=' run per anchor and writes one confidence row per emitted piece. An
// interval that collapsed to a single operation is trusted like an anchor,
// a mixed interval is not.
func combineCigarsWithAnchors(cigars []Cigar, anchors []rarematch.RareMatchPair, confidenceFn string) Cigar {
	fp, err := os.Create(confidenceFn)
	if err != nil {
		log.Fatalf("[combineCigarsWithAnchors] create file: %s failed, err: %v\n", confidenceFn, err)
	}
	defer fp.Close()
	fmt.Fprintf(fp, "cigar,confidence,rare match\n")

	var combined Cigar
	for i, cg := range cigars {
		var kept Cigar
		for _, unit := range cg {
			if _, length := IntToCigar(unit); length > 0 {
				kept = append(kept, unit)
			}
		}
		if len(kept) > 0 {
			confidence := 0
			if len(kept) == 1 {
				confidence = 1
			}
			fmt.Fprintf(fp, "%s,%d,0\n", kept.String(), confidence)
			combined = append(combined, kept...)
		}
		if i < len(anchors) {
			unit := CigarToInt('=', uint32(anchors[i].MatchLength))
			fmt.Fprintf(fp, "%s,1,1\n", Cigar{unit}.String())
			combined = append(combined, unit)
		}
	}
	fmt.Printf("[combineCigarsWithAnchors] %s has been saved\n", confidenceFn)
	return combined
}

// VerifyCigar replays the CIGAR against both sequences, checking that '='
// runs cover equal bytes, 'X' runs cover differing bytes and that the whole
// of both sequences is consumed.
func VerifyCigar(c Cigar, seq1, seq2 []byte) error {
	i, j := 0, 0
	for _, unit := range c {
		operation, length := IntToCigar(unit)
		n := int(length)
		switch operation {
		case '=':
			for k := 0; k < n; k++ {
				if seq1[i+k] != seq2[j+k] {
					return errors.Wrapf(utils.ErrInternal,
						"cigar claims match at (%d, %d) but bases differ: %c vs %c", i+k, j+k, seq1[i+k], seq2[j+k])
				}
			}
			i += n
			j += n
		case 'X':
			for k := 0; k < n; k++ {
				if seq1[i+k] == seq2[j+k] {
					return errors.Wrapf(utils.ErrInternal,
						"cigar claims mismatch at (%d, %d) but bases are equal: %c", i+k, j+k, seq1[i+k])
				}
			}
			i += n
			j += n
		case 'M':
			i += n
			j += n
		case 'I':
			j += n
		case 'D':
			i += n
		default:
			return errors.Wrapf(utils.ErrInternal, "unknown cigar operation %c", operation)
		}
	}
	if i != len(seq1) || j != len(seq2) {
		return errors.Wrapf(utils.ErrInternal,
			"cigar consumes (%d, %d) bases, sequences have (%d, %d)", i, j, len(seq1), len(seq2))
	}
	return nil
}
