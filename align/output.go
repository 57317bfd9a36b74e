package align

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/biogo/hts/sam"
	"github.com/google/brotli/go/cbrotli"

	"github.com/malabz/rama/seq"
)

// SaveCigarToTxt writes the whole-sequence CIGAR as one line of text.
func SaveCigarToTxt(c Cigar, fn string) {
	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[SaveCigarToTxt] create file: %s failed, err: %v\n", fn, err)
	}
	defer fp.Close()
	bw := bufio.NewWriter(fp)
	bw.WriteString(c.String())
	bw.WriteByte('\n')
	if err = bw.Flush(); err != nil {
		log.Fatalf("[SaveCigarToTxt] write file: %s failed, err: %v\n", fn, err)
	}
	fmt.Printf("[SaveCigarToTxt] %s has been saved\n", fn)
}

// CigarToFasta expands the CIGAR into the two gapped sequences and writes
// them as a brotli-compressed FASTA file, '-' marking the gap columns.
func CigarToFasta(c Cigar, data []seq.SequenceInfo, fn string) {
	aligned1, aligned2 := gappedSequences(c, data[0].Sequence, data[1].Sequence)

	outfp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[CigarToFasta] create file: %s failed, err: %v\n", fn, err)
	}
	defer outfp.Close()
	brfp := cbrotli.NewWriter(outfp, cbrotli.WriterOptions{Quality: 1})
	defer brfp.Close()
	buffp := bufio.NewWriterSize(brfp, 1<<20)

	writeFastaRecord(buffp, data[0].Header, aligned1)
	writeFastaRecord(buffp, data[1].Header, aligned2)
	if err = buffp.Flush(); err != nil {
		log.Fatalf("[CigarToFasta] write file: %s failed, err: %v\n", fn, err)
	}
	fmt.Printf("[CigarToFasta] %s has been saved\n", fn)
}

func gappedSequences(c Cigar, seq1, seq2 []byte) (aligned1, aligned2 []byte) {
	i, j := 0, 0
	for _, unit := range c {
		operation, length := IntToCigar(unit)
		n := int(length)
		switch operation {
		case '=', 'X', 'M':
			aligned1 = append(aligned1, seq1[i:i+n]...)
			aligned2 = append(aligned2, seq2[j:j+n]...)
			i += n
			j += n
		case 'I':
			for k := 0; k < n; k++ {
				aligned1 = append(aligned1, '-')
			}
			aligned2 = append(aligned2, seq2[j:j+n]...)
			j += n
		case 'D':
			aligned1 = append(aligned1, seq1[i:i+n]...)
			for k := 0; k < n; k++ {
				aligned2 = append(aligned2, '-')
			}
			i += n
		}
	}
	return aligned1, aligned2
}

const fastaLineWidth = 80

func writeFastaRecord(bw *bufio.Writer, header string, sequence []byte) {
	bw.WriteByte('>')
	bw.WriteString(header)
	bw.WriteByte('\n')
	for p := 0; p < len(sequence); p += fastaLineWidth {
		end := p + fastaLineWidth
		if end > len(sequence) {
			end = len(sequence)
		}
		bw.Write(sequence[p:end])
		bw.WriteByte('\n')
	}
}

// WriteSAM writes the alignment as a single SAM record, the first sequence
// acting as the reference and the second as the read.
func WriteSAM(c Cigar, data []seq.SequenceInfo, fn string) {
	ref, err := sam.NewReference(data[0].Header, "", "", data[0].SeqLen, nil, nil)
	if err != nil {
		log.Fatalf("[WriteSAM] create reference failed, err: %v\n", err)
	}
	h, err := sam.NewHeader(nil, []*sam.Reference{ref})
	if err != nil {
		log.Fatalf("[WriteSAM] create header failed, err: %v\n", err)
	}

	co := make([]sam.CigarOp, 0, len(c))
	for _, unit := range c {
		operation, length := IntToCigar(unit)
		var t sam.CigarOpType
		switch operation {
		case 'M':
			t = sam.CigarMatch
		case 'I':
			t = sam.CigarInsertion
		case 'D':
			t = sam.CigarDeletion
		case '=':
			t = sam.CigarEqual
		case 'X':
			t = sam.CigarMismatch
		default:
			log.Fatalf("[WriteSAM] unknown cigar operation %c\n", operation)
		}
		co = append(co, sam.NewCigarOp(t, int(length)))
	}

	read := data[1].Sequence
	qual := make([]byte, len(read))
	for i := range qual {
		qual[i] = 0xff
	}
	rec, err := sam.NewRecord(data[1].Header, ref, nil, 0, -1, 0, 60, co, read, qual, nil)
	if err != nil {
		log.Fatalf("[WriteSAM] create record failed, err: %v\n", err)
	}

	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[WriteSAM] create file: %s failed, err: %v\n", fn, err)
	}
	defer fp.Close()
	bw := bufio.NewWriter(fp)
	w, err := sam.NewWriter(bw, h, sam.FlagDecimal)
	if err != nil {
		log.Fatalf("[WriteSAM] create writer failed, err: %v\n", err)
	}
	if err = w.Write(rec); err != nil {
		log.Fatalf("[WriteSAM] write record failed, err: %v\n", err)
	}
	if err = bw.Flush(); err != nil {
		log.Fatalf("[WriteSAM] write file: %s failed, err: %v\n", fn, err)
	}
	fmt.Printf("[WriteSAM] %s has been saved\n", fn)
}
