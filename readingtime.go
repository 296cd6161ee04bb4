package spacetravelling

import "regexp"

// WordsPerMinute is the reading speed used for estimates.
const WordsPerMinute = 200

// wordDelimiter splits on anything that is not a word character, '(' ,')'
// or '+'.
var wordDelimiter = regexp.MustCompile(`[^(\w+)]`)

// CountWords returns the number of non-empty tokens in s.
func CountWords(s string) int {
	n := 0
	for _, w := range wordDelimiter.Split(s, -1) {
		if w != "" {
			n++
		}
	}
	return n
}

// EstimateReadingTime returns the minutes needed to read blocks. Each block
// is rounded up on its own before the blocks are summed.
func EstimateReadingTime(blocks []ContentBlock) int {
	total := 0
	for _, b := range blocks {
		words := CountWords(b.Heading) + CountWords(b.Body.Text())
		total += (words + WordsPerMinute - 1) / WordsPerMinute
	}
	return total
}
