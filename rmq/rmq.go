// Package rmq answers O(1) range-minimum queries over the LCP array using
// block decomposition, a sparse table over block minima and per-element
// in-block bitmasks.
package rmq

import (
	"io"
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/utils"
)

const maxM = 32

// LinearSparseTable holds O(N) preprocessing state. All index vectors are
// 1-based internally; the LCP slice itself stays 0-based.
type LinearSparseTable struct {
	lcp       []int
	n         int
	blockSize int
	blockNum  int
	pow       []int
	log       []int
	pre       []int
	sub       []int
	belong    []int
	pos       []int
	f         []uint64
	st        [][]int
}

// New preprocesses lcp for queries. A non-nil pool parallelizes the
// per-block passes; the sparse-table levels stay sequential because each
// level reads the previous one.
func New(lcp []int, pl *pool.Pool) *LinearSparseTable {
	r := &LinearSparseTable{lcp: lcp, n: len(lcp)}
	n := r.n
	r.belong = make([]int, n+1)
	r.pos = make([]int, n+1)
	r.pow = make([]int, maxM)
	r.log = make([]int, n+1)
	r.pre = make([]int, n+1)
	r.sub = make([]int, n+1)
	r.f = make([]uint64, n+1)

	r.blockSize = utils.MinInt(int(math.Log2(float64(n))*1.5), 63)
	if r.blockSize < 1 {
		r.blockSize = 1
	}
	r.blockNum = (n + r.blockSize - 1) / r.blockSize

	r.pow[0] = 1
	for i := 1; i < maxM; i++ {
		r.pow[i] = r.pow[i-1] * 2
	}
	for i := 2; i <= r.blockNum; i++ {
		r.log[i] = r.log[i/2] + 1
	}

	r.st = make([][]int, r.blockNum+1)
	for i := range r.st {
		r.st[i] = make([]int, r.log[r.blockNum]+1)
		for j := range r.st[i] {
			r.st[i][j] = math.MaxInt64
		}
	}

	r.buildST()
	if pl != nil {
		r.buildSubPreParallel(pl)
		r.buildBlockParallel(pl)
	} else {
		r.buildSubPre()
		r.buildBlock()
	}
	return r
}

func (r *LinearSparseTable) buildST() {
	cur, id := 0, 1
	for i := 1; i <= r.n; i++ {
		r.st[id][0] = utils.MinInt(r.st[id][0], r.lcp[i-1])
		r.belong[i] = id
		r.pos[i] = cur
		cur++
		if cur == r.blockSize {
			cur = 0
			id++
		}
	}
	for i := 1; i <= r.log[r.blockNum]; i++ {
		for j := 1; j+r.pow[i]-1 <= r.blockNum; j++ {
			r.st[j][i] = utils.MinInt(r.st[j][i-1], r.st[j+r.pow[i-1]][i-1])
		}
	}
}

func (r *LinearSparseTable) subPreBlock(block int) {
	start := block*r.blockSize + 1
	end := utils.MinInt((block+1)*r.blockSize, r.n)
	for i := start; i <= end; i++ {
		if i == start || r.belong[i] != r.belong[i-1] {
			r.pre[i] = r.lcp[i-1]
		} else {
			r.pre[i] = utils.MinInt(r.pre[i-1], r.lcp[i-1])
		}
	}
	for i := end; i >= start; i-- {
		if i == end || i+1 > r.n || r.belong[i] != r.belong[i+1] {
			r.sub[i] = r.lcp[i-1]
		} else {
			r.sub[i] = utils.MinInt(r.sub[i+1], r.lcp[i-1])
		}
	}
}

func (r *LinearSparseTable) buildSubPre() {
	for block := 0; block < r.blockNum; block++ {
		r.subPreBlock(block)
	}
}

func (r *LinearSparseTable) buildSubPreParallel(pl *pool.Pool) {
	for block := 0; block < r.blockNum; block++ {
		b := block
		pl.Submit(func() { r.subPreBlock(b) })
	}
	pl.WaitAll()
}

// blockMask fills f for one block with a monotone stack, clearing the bit
// of every popped position so that for each i the surviving set bits mark
// suffix minima of the block prefix ending at i.
func (r *LinearSparseTable) blockMask(start int) {
	end := utils.MinInt(start+r.blockSize-1, r.n)
	top := 0
	s := make([]int, r.blockSize+1)
	for i := start; i <= end; i++ {
		if r.pos[i] == 0 {
			top = 0
		} else {
			r.f[i] = r.f[i-1]
		}
		for top > 0 && r.lcp[s[top]-1] >= r.lcp[i-1] {
			r.f[i] &^= 1 << uint(r.pos[s[top]])
			top--
		}
		top++
		s[top] = i
		r.f[i] |= 1 << uint(r.pos[i])
	}
}

func (r *LinearSparseTable) buildBlock() {
	for start := 1; start <= r.n; start += r.blockSize {
		r.blockMask(start)
	}
}

func (r *LinearSparseTable) buildBlockParallel(pl *pool.Pool) {
	for start := 1; start <= r.n; start += r.blockSize {
		st := start
		pl.Submit(func() { r.blockMask(st) })
	}
	pl.WaitAll()
}

// QueryMin returns min(LCP[l..r]) for 0-based inclusive l <= r.
func (r *LinearSparseTable) QueryMin(l, r2 int) int {
	if l > r2 || l < 0 || r2 >= r.n {
		panic(errors.Wrapf(utils.ErrInternal, "QueryMin(%d, %d) out of range, N=%d", l, r2, r.n))
	}
	l++
	r2++
	bl, br := r.belong[l], r.belong[r2]
	if bl != br {
		ans1 := math.MaxInt64
		if br-bl > 1 {
			p := r.log[br-bl-1]
			ans1 = utils.MinInt(r.st[bl+1][p], r.st[br-r.pow[p]][p])
		}
		ans2 := utils.MinInt(r.sub[l], r.pre[r2])
		return utils.MinInt(ans1, ans2)
	}
	return r.lcp[l+bits.TrailingZeros64(r.f[r2]>>uint(r.pos[l]))-1]
}

// SetLCP re-attaches the LCP slice after deserialization; the slice itself
// is persisted with the suffix array state, not here.
func (r *LinearSparseTable) SetLCP(lcp []int) {
	r.lcp = lcp
}

func (r *LinearSparseTable) Serialize(w io.Writer) error {
	if err := utils.SaveNumber(w, uint64(r.n)); err != nil {
		return err
	}
	if err := utils.SaveNumber(w, uint64(r.blockSize)); err != nil {
		return err
	}
	if err := utils.SaveNumber(w, uint64(r.blockNum)); err != nil {
		return err
	}
	for _, arr := range [][]int{r.pow, r.log, r.pre, r.sub, r.belong, r.pos} {
		if err := utils.SaveIntSlice(w, arr); err != nil {
			return err
		}
	}
	if err := utils.SaveUint64Slice(w, r.f); err != nil {
		return err
	}
	return utils.SaveIntSlice2D(w, r.st)
}

func (r *LinearSparseTable) Deserialize(rd io.Reader) error {
	v, err := utils.LoadNumber(rd)
	if err != nil {
		return err
	}
	r.n = int(v)
	if v, err = utils.LoadNumber(rd); err != nil {
		return err
	}
	r.blockSize = int(v)
	if v, err = utils.LoadNumber(rd); err != nil {
		return err
	}
	r.blockNum = int(v)
	for _, dst := range []*[]int{&r.pow, &r.log, &r.pre, &r.sub, &r.belong, &r.pos} {
		if *dst, err = utils.LoadIntSlice(rd); err != nil {
			return err
		}
	}
	if r.f, err = utils.LoadUint64Slice(rd); err != nil {
		return err
	}
	r.st, err = utils.LoadIntSlice2D(rd)
	return err
}
