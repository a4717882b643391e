package command

// failureTable builds the KMP longest-proper-prefix-suffix table.
func failureTable(pattern []Token) []int {
	fail := make([]int, len(pattern))
	k := 0
	for i := 1; i < len(pattern); i++ {
		for k > 0 && pattern[i] != pattern[k] {
			k = fail[k-1]
		}
		if pattern[i] == pattern[k] {
			k++
		}
		fail[i] = k
	}
	return fail
}

// IndexKMP returns the index of the first exact occurrence of pattern in
// text, or -1. An empty pattern never matches.
func IndexKMP(text, pattern []Token) int {
	if len(pattern) == 0 || len(pattern) > len(text) {
		return -1
	}
	fail := failureTable(pattern)
	k := 0
	for i, tok := range text {
		for k > 0 && tok != pattern[k] {
			k = fail[k-1]
		}
		if tok == pattern[k] {
			k++
		}
		if k == len(pattern) {
			return i - len(pattern) + 1
		}
	}
	return -1
}
