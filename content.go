package jobscope

import "strings"

// WordsPerMinute is the reading speed used for reading-time estimates.
const WordsPerMinute = 200

// ReadingTime estimates minutes to read content: whitespace-delimited words
// divided by WordsPerMinute, rounded up.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
