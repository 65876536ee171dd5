// Package model defines shared data structures.
package model

import "time"

// LetterCount maps a letter run to the number of times it is available.
type LetterCount map[string]int64

// Total returns the sum of all available counts.
func (lc LetterCount) Total() int64 {
	var total int64
	for _, n := range lc {
		total += n
	}
	return total
}

// Dictionary is the ordered list of candidate words. It is never mutated
// after loading and is shared by reference between workers.
type Dictionary []string

// TestCase is one labelled puzzle from the test-case file.
type TestCase struct {
	Line     int
	Spec     string
	Expected string
}

// MatchResult describes the best word found for a letter bag.
type MatchResult struct {
	Word       string
	Score      int
	Difference int64
}

// CaseResult is the outcome of evaluating a single test case.
type CaseResult struct {
	Case    TestCase
	Match   MatchResult
	Matched bool
	Correct bool
	Err     error
}

// Outcome aggregates the results of a batch run.
type Outcome struct {
	Total    int
	Correct  int
	Partial  bool
	Planned  int
	Failures []CaseResult
}

// Accuracy returns the percentage of correct cases. The second value is
// false when no case was evaluated.
func (o Outcome) Accuracy() (float64, bool) {
	if o.Total == 0 {
		return 0, false
	}
	return float64(o.Correct) / float64(o.Total) * 100, true
}

// EvalConfig defines batch evaluation settings.
type EvalConfig struct {
	DictPath     string
	DictName     string
	TestsPath    string
	Workers      int
	Shuffle      bool
	Seed         int64
	Limit        int
	ShowFailures int
	Progress     string
}

// DictionaryInfo describes a dictionary imported into the store.
type DictionaryInfo struct {
	Name       string
	SourcePath string
	Words      int
	ImportedAt time.Time
}
