package tracelog

// globMatch reports whether input matches pattern, where pattern may
// contain '*' (any run of characters, including empty), '+' (any run of
// at least one character), and '?' (exactly one character); every other
// character matches itself literally.
//
// Grounded on original_source's glob_match, which describes a single
// left-to-right scan that enters a "seeking" mode on '*'/'+'. This
// implementation uses the standard greedy-with-backtrack wildcard
// matching algorithm instead of a literal single-pass scan; for this
// pattern language (no backreferences, no alternation) the two produce
// identical accept/reject results, and the backtracking form is far less
// error-prone to get right at the boundaries (trailing '*'/'+', empty
// input, adjacent wildcards).
func globMatch(pattern, input string) bool {
	if input == "" {
		// '+' can never match empty input; '*' and literals have to be
		// literally absent for an empty match.
		for i := 0; i < len(pattern); i++ {
			if pattern[i] != '*' {
				return false
			}
		}
		return true
	}

	pi, ii := 0, 0
	starIdx, starInputIdx := -1, -1
	for ii < len(input) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == input[ii]):
			pi++
			ii++
		case pi < len(pattern) && pattern[pi] == '*':
			starIdx = pi
			starInputIdx = ii
			pi++
		case pi < len(pattern) && pattern[pi] == '+':
			// '+' must consume at least one input character; once that's
			// satisfied it behaves exactly like '*' from here on, so the
			// backtrack target is recorded the same way.
			ii++
			starIdx = pi
			starInputIdx = ii
			pi++
		case starIdx >= 0:
			// Backtrack: let the last '*'/'+' absorb one more input char.
			pi = starIdx + 1
			starInputIdx++
			ii = starInputIdx
		default:
			return false
		}
	}
	for pi < len(pattern) && (pattern[pi] == '*' || pattern[pi] == '+') {
		pi++
	}
	return pi == len(pattern)
}
