package gsa

// Suffix array construction by induced sorting. The input must end with a
// unique smallest sentinel (0).

func buildSuffixArray(t []byte) []int {
	n := len(t)
	s := make([]int, n)
	for i, c := range t {
		s[i] = int(c)
	}
	return sais(s, 256, n, make([]int, n), make([]int, n))
}

func sais(s []int, k, n int, sa, lmsNames []int) []int {
	sa = sa[:n]
	for i := range sa {
		sa[i] = -1
	}
	if n == 0 {
		return sa
	}
	if n == 1 {
		sa[0] = 0
		return sa
	}
	t := make([]bool, n)
	t[n-1] = true
	for i := n - 2; i >= 0; i-- {
		if s[i] < s[i+1] {
			t[i] = true
		} else if s[i] > s[i+1] {
			t[i] = false
		} else {
			t[i] = t[i+1]
		}
	}
	var lmsPositions []int
	for i := 1; i < n; i++ {
		if t[i] && !t[i-1] {
			lmsPositions = append(lmsPositions, i)
		}
	}
	sa = induceSort(s, sa, t, k, lmsPositions)
	var sortedLMS []int
	for _, pos := range sa {
		if pos > 0 && t[pos] && !t[pos-1] {
			sortedLMS = append(sortedLMS, pos)
		}
	}
	lmsNames = lmsNames[:n]
	for i := range lmsNames {
		lmsNames[i] = -1
	}
	name := 0
	prev := -1
	for _, pos := range sortedLMS {
		if prev == -1 {
			lmsNames[pos] = name
		} else {
			if !lmsSubstringEqual(s, t, prev, pos) {
				name++
			}
			lmsNames[pos] = name
		}
		prev = pos
	}
	numNames := name + 1
	reduced := make([]int, 0, len(lmsPositions))
	for _, pos := range lmsPositions {
		reduced = append(reduced, lmsNames[pos])
	}
	var reducedSA []int
	if numNames < len(reduced) {
		reducedSA = sais(reduced, numNames, len(reduced), sa, lmsNames)
	} else {
		reducedSA = make([]int, len(reduced))
		for i, nm := range reduced {
			reducedSA[nm] = i
		}
	}
	orderedLMS := make([]int, len(reducedSA))
	for i, idx := range reducedSA {
		orderedLMS[i] = lmsPositions[idx]
	}
	for i := range sa {
		sa[i] = -1
	}
	sa = induceSort(s, sa, t, k, orderedLMS)
	return sa
}

func induceSort(s []int, sa []int, t []bool, k int, lms []int) []int {
	bs := computeBucketSizes(s, k)
	bucketTails := computeBucketTails(bs)
	for i := len(lms) - 1; i >= 0; i-- {
		pos := lms[i]
		c := s[pos]
		sa[bucketTails[c]] = pos
		bucketTails[c]--
	}
	bucketHeads := computeBucketHeads(bs)
	for i := range sa {
		pos := sa[i]
		if pos > 0 && !t[pos-1] {
			c := s[pos-1]
			sa[bucketHeads[c]] = pos - 1
			bucketHeads[c]++
		}
	}
	bucketTails = computeBucketTails(bs)
	for i := len(sa) - 1; i >= 0; i-- {
		pos := sa[i]
		if pos > 0 && t[pos-1] {
			c := s[pos-1]
			sa[bucketTails[c]] = pos - 1
			bucketTails[c]--
		}
	}
	return sa
}

func computeBucketSizes(s []int, k int) []int {
	bs := make([]int, k)
	for i := 0; i < len(s); i++ {
		bs[s[i]]++
	}
	return bs
}

func computeBucketHeads(bs []int) []int {
	heads := make([]int, len(bs))
	sum := 0
	for i, v := range bs {
		heads[i] = sum
		sum += v
	}
	return heads
}

func computeBucketTails(bs []int) []int {
	tails := make([]int, len(bs))
	sum := 0
	for i, v := range bs {
		sum += v
		tails[i] = sum - 1
	}
	return tails
}

func lmsSubstringEqual(s []int, t []bool, i, j int) bool {
	n := len(s)
	for k := 0; i+k < n && j+k < n; k++ {
		if s[i+k] != s[j+k] || t[i+k] != t[j+k] {
			return false
		}
		if k == 0 {
			continue
		}
		iIsLMS := t[i+k] && !t[i+k-1]
		jIsLMS := t[j+k] && !t[j+k-1]
		if iIsLMS && jIsLMS {
			return true
		}
		if iIsLMS != jIsLMS {
			return false
		}
	}
	return false
}
