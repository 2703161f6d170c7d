package engine

// resolveRange implements spec §4.1.1's range resolution, shared by
// BITCOUNT and GETRANGE. Given a signed (start, end) pair and a
// container length l, it returns the inclusive byte window [lo, hi] to
// select, or ok == false when the window is empty.
func resolveRange(start, end int64, l int) (lo, hi int, ok bool) {
	if l == 0 {
		return 0, 0, false
	}

	norm := func(b int64) int {
		if b < 0 {
			v := l + int(b) // l - |b|
			if v < 0 {
				v = 0
			}
			return v
		}
		return int(b)
	}

	lo = norm(start)
	hi = norm(end)

	if hi >= l {
		hi = l - 1
	}

	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}
