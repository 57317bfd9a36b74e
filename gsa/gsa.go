// Package gsa builds the generalized suffix array of the two-sequence
// concatenation together with its LCP, document and inverse arrays.
package gsa

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/utils"
)

type GSA struct {
	SA  []int
	LCP []int
	DA  []int
	ISA []int
}

// Build computes SA, ISA, LCP and DA over concatData. firstSeqLen is the
// length of the first sequence; every suffix starting at a position <=
// firstSeqLen belongs to document 0.
func Build(concatData []byte, firstSeqLen int, pl *pool.Pool) *GSA {
	t0 := time.Now()
	g := &GSA{}
	g.SA = buildSuffixArray(concatData)
	fmt.Printf("[Build] suffix array of %d suffixes constructed, used: %v\n", len(g.SA), time.Now().Sub(t0))
	g.constructISA(pl)
	g.constructDA(firstSeqLen, pl)
	g.constructLCP(concatData)
	return g
}

func (g *GSA) constructISA(pl *pool.Pool) {
	n := len(g.SA)
	g.ISA = make([]int, n)
	chunkNum := 1
	if pl != nil {
		chunkNum = chunkNum + n/(1<<16)
	}
	chunkSize := (n + chunkNum - 1) / chunkNum
	for c := 0; c < chunkNum; c++ {
		start := c * chunkSize
		end := utils.MinInt(start+chunkSize, n)
		job := func() {
			for i := start; i < end; i++ {
				g.ISA[g.SA[i]] = i
			}
		}
		if pl != nil {
			pl.Submit(job)
		} else {
			job()
		}
	}
	if pl != nil {
		pl.WaitAll()
	}
}

func (g *GSA) constructDA(firstSeqLen int, pl *pool.Pool) {
	n := len(g.SA)
	g.DA = make([]int, n)
	job := func() {
		for i := 0; i < n; i++ {
			if g.SA[i] > firstSeqLen {
				g.DA[i] = 1
			}
		}
	}
	if pl != nil {
		pl.Submit(job)
		pl.WaitAll()
	} else {
		job()
	}
}

// constructLCP uses the permuted longest-common-prefix scan over text order,
// which needs ISA and runs in linear time.
func (g *GSA) constructLCP(t []byte) {
	n := len(t)
	g.LCP = make([]int, n)
	l := 0
	for i := 0; i < n; i++ {
		j := g.ISA[i]
		if j == 0 {
			l = 0
			continue
		}
		k := g.SA[j-1]
		for k+l < n && i+l < n && t[k+l] == t[i+l] {
			l++
		}
		g.LCP[j] = l
		if l > 0 {
			l--
		}
	}
	g.LCP[0] = 0
}

// Check spot-verifies the structure against concatData after a cache load.
func (g *GSA) Check(concatData []byte, firstSeqLen int) error {
	n := len(concatData)
	if len(g.SA) != n || len(g.LCP) != n || len(g.DA) != n || len(g.ISA) != n {
		return errors.Wrapf(utils.ErrCorruptCache, "array sizes %d/%d/%d/%d against text %d",
			len(g.SA), len(g.LCP), len(g.DA), len(g.ISA), n)
	}
	step := utils.MaxInt(1, n/1024)
	for i := 0; i < n; i += step {
		if g.SA[i] < 0 || g.SA[i] >= n || g.ISA[g.SA[i]] != i {
			return errors.Wrapf(utils.ErrCorruptCache, "ISA[SA[%d]] != %d", i, i)
		}
		doc := 0
		if g.SA[i] > firstSeqLen {
			doc = 1
		}
		if g.DA[i] != doc {
			return errors.Wrapf(utils.ErrCorruptCache, "DA[%d] = %d, suffix %d", i, g.DA[i], g.SA[i])
		}
	}
	return nil
}

func (g *GSA) Serialize(w io.Writer) error {
	if err := utils.SaveIntSlice(w, g.SA); err != nil {
		return err
	}
	if err := utils.SaveIntSlice(w, g.LCP); err != nil {
		return err
	}
	if err := utils.SaveIntSlice(w, g.DA); err != nil {
		return err
	}
	return utils.SaveIntSlice(w, g.ISA)
}

func (g *GSA) Deserialize(r io.Reader) (err error) {
	if g.SA, err = utils.LoadIntSlice(r); err != nil {
		return err
	}
	if g.LCP, err = utils.LoadIntSlice(r); err != nil {
		return err
	}
	if g.DA, err = utils.LoadIntSlice(r); err != nil {
		return err
	}
	g.ISA, err = utils.LoadIntSlice(r)
	return err
}
