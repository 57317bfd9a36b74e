package rarematch

import "math"

// LCPInterval is a fixed-width window over the LCP array tracking its
// minimum with a monotone deque. Width 1 bypasses the deque.
type LCPInterval struct {
	lcp          []int
	intervalSize int
	left         int
	right        int
	minDeque     []int
	minLCPValue  int
}

func NewLCPInterval(lcp []int, intervalSize int) *LCPInterval {
	w := &LCPInterval{
		lcp:          lcp,
		intervalSize: intervalSize,
		left:         0,
		right:        intervalSize - 1,
		minLCPValue:  math.MaxInt64,
	}
	if intervalSize == 1 && len(lcp) > 0 {
		w.minLCPValue = lcp[0]
	} else {
		for i := 0; i < intervalSize && i < len(lcp); i++ {
			for len(w.minDeque) > 0 && lcp[i] < lcp[w.minDeque[len(w.minDeque)-1]] {
				w.minDeque = w.minDeque[:len(w.minDeque)-1]
			}
			w.minDeque = append(w.minDeque, i)
		}
		if len(w.minDeque) > 0 {
			w.minLCPValue = lcp[w.minDeque[0]]
		}
	}
	return w
}

func (w *LCPInterval) SlideRight() {
	if w.right+1 >= len(w.lcp) {
		return
	}
	w.left++
	w.right++
	if w.intervalSize == 1 {
		w.minLCPValue = w.lcp[w.right]
		return
	}
	for len(w.minDeque) > 0 && w.minDeque[0] < w.left {
		w.minDeque = w.minDeque[1:]
	}
	for len(w.minDeque) > 0 && w.lcp[w.right] < w.lcp[w.minDeque[len(w.minDeque)-1]] {
		w.minDeque = w.minDeque[:len(w.minDeque)-1]
	}
	w.minDeque = append(w.minDeque, w.right)
	if len(w.minDeque) > 0 {
		w.minLCPValue = w.lcp[w.minDeque[0]]
	}
}

func (w *LCPInterval) MinLCP() int {
	return w.minLCPValue
}

// IsRareInterval reports whether the window is a maximal plateau: the LCP
// values on both sides of it are strictly smaller than the window minimum.
func (w *LCPInterval) IsRareInterval() bool {
	if w.left > 0 && w.lcp[w.left-1] >= w.minLCPValue {
		return false
	}
	if w.right < len(w.lcp)-1 && w.lcp[w.right+1] >= w.minLCPValue {
		return false
	}
	return true
}

func (w *LCPInterval) IsRightAtEnd() bool {
	return w.right == len(w.lcp)-1
}

func (w *LCPInterval) Boundary() (left, right int) {
	return w.left, w.right
}
