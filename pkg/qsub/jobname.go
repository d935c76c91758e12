package qsub

import (
	"unicode"
	"unicode/utf8"
)

// JobName returns the scheduler-visible name for jobID. Schedulers reject
// names that start with a digit or symbol, so a "." is prepended unless the
// first character is a letter.
func JobName(jobID string) string {
	r, _ := utf8.DecodeRuneInString(jobID)
	if unicode.IsLetter(r) {
		return jobID
	}
	return "." + jobID
}
