package align

const infCost = int32(1) << 30

// dpLayers holds the five cost layers of the two-piece gap-affine
// recurrence over a (len1+1) x (len2+1) grid, flattened row major.
type dpLayers struct {
	cols int
	m    []int32
	i1   []int32
	i2   []int32
	d1   []int32
	d2   []int32
}

func newDPLayers(rows, cols int) *dpLayers {
	size := rows * cols
	l := &dpLayers{
		cols: cols,
		m:    make([]int32, size),
		i1:   make([]int32, size),
		i2:   make([]int32, size),
		d1:   make([]int32, size),
		d2:   make([]int32, size),
	}
	for i := 0; i < size; i++ {
		l.m[i] = infCost
		l.i1[i] = infCost
		l.i2[i] = infCost
		l.d1[i] = infCost
		l.d2[i] = infCost
	}
	return l
}

func (l *dpLayers) at(i, j int) int {
	return i*l.cols + j
}

func (l *dpLayers) best(i, j int) int32 {
	k := l.at(i, j)
	b := l.m[k]
	if l.i1[k] < b {
		b = l.i1[k]
	}
	if l.i2[k] < b {
		b = l.i2[k]
	}
	if l.d1[k] < b {
		b = l.d1[k]
	}
	if l.d2[k] < b {
		b = l.d2[k]
	}
	return b
}

// alignGapAffine2Piece aligns seq1 against seq2 globally, charging each gap
// the cheaper of two affine penalty lines, and returns the traceback as
// '='/'X'/'I'/'D' runs. 'I' consumes seq2, 'D' consumes seq1.
func (pa *PairAligner) alignGapAffine2Piece(seq1, seq2 []byte) Cigar {
	n1, n2 := len(seq1), len(seq2)
	o1, e1 := int32(pa.gapOpen1), int32(pa.gapExtension1)
	o2, e2 := int32(pa.gapOpen2), int32(pa.gapExtension2)
	l := newDPLayers(n1+1, n2+1)

	l.m[l.at(0, 0)] = 0
	for j := 1; j <= n2; j++ {
		l.i1[l.at(0, j)] = o1 + int32(j)*e1
		l.i2[l.at(0, j)] = o2 + int32(j)*e2
	}
	for i := 1; i <= n1; i++ {
		l.d1[l.at(i, 0)] = o1 + int32(i)*e1
		l.d2[l.at(i, 0)] = o2 + int32(i)*e2
	}

	for i := 1; i <= n1; i++ {
		for j := 1; j <= n2; j++ {
			k := l.at(i, j)
			sub := int32(pa.mismatch)
			if seq1[i-1] == seq2[j-1] {
				sub = int32(pa.match)
			}
			l.m[k] = l.best(i-1, j-1) + sub

			left := l.at(i, j-1)
			bestLeft := l.best(i, j-1)
			l.i1[k] = minCost(l.i1[left]+e1, bestLeft+o1+e1)
			l.i2[k] = minCost(l.i2[left]+e2, bestLeft+o2+e2)

			up := l.at(i-1, j)
			bestUp := l.best(i-1, j)
			l.d1[k] = minCost(l.d1[up]+e1, bestUp+o1+e1)
			l.d2[k] = minCost(l.d2[up]+e2, bestUp+o2+e2)
		}
	}

	ops := make([]byte, 0, n1+n2)
	i, j := n1, n2
	layer := l.argmin(i, j)
	for i > 0 || j > 0 {
		switch layer {
		case layerM:
			if seq1[i-1] == seq2[j-1] {
				ops = append(ops, '=')
			} else {
				ops = append(ops, 'X')
			}
			i--
			j--
			layer = l.argmin(i, j)
		case layerI1:
			ops = append(ops, 'I')
			if l.i1[l.at(i, j)] != l.i1[l.at(i, j-1)]+e1 {
				layer = l.argminAfter(i, j-1)
			}
			j--
		case layerI2:
			ops = append(ops, 'I')
			if l.i2[l.at(i, j)] != l.i2[l.at(i, j-1)]+e2 {
				layer = l.argminAfter(i, j-1)
			}
			j--
		case layerD1:
			ops = append(ops, 'D')
			if l.d1[l.at(i, j)] != l.d1[l.at(i-1, j)]+e1 {
				layer = l.argminAfter(i-1, j)
			}
			i--
		case layerD2:
			ops = append(ops, 'D')
			if l.d2[l.at(i, j)] != l.d2[l.at(i-1, j)]+e2 {
				layer = l.argminAfter(i-1, j)
			}
			i--
		}
	}

	var result Cigar
	for p := len(ops) - 1; p >= 0; {
		q := p
		for q >= 0 && ops[q] == ops[p] {
			q--
		}
		result = append(result, CigarToInt(ops[p], uint32(p-q)))
		p = q
	}
	return result
}

const (
	layerM = iota
	layerI1
	layerI2
	layerD1
	layerD2
)

func (l *dpLayers) argmin(i, j int) int {
	k := l.at(i, j)
	layer, best := layerM, l.m[k]
	if l.i1[k] < best {
		layer, best = layerI1, l.i1[k]
	}
	if l.i2[k] < best {
		layer, best = layerI2, l.i2[k]
	}
	if l.d1[k] < best {
		layer, best = layerD1, l.d1[k]
	}
	if l.d2[k] < best {
		layer, best = layerD2, l.d2[k]
	}
	return layer
}

// argminAfter resolves the layer a freshly opened gap came from.
func (l *dpLayers) argminAfter(i, j int) int {
	return l.argmin(i, j)
}

func minCost(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
