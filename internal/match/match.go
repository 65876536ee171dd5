// Package match scores dictionary words against a letter bag.
package match

import (
	"math"

	"github.com/verte-zerg/letterfit/internal/model"
)

// Score returns the size of the multiset intersection between the letters
// of word and the bag.
func Score(word string, bag model.LetterCount) int {
	counts := make(map[rune]int, len(word))
	for _, r := range word {
		counts[r]++
	}
	score := 0
	for r, n := range counts {
		avail, ok := bag[string(r)]
		if !ok {
			continue
		}
		score += int(min(int64(n), avail))
	}
	return score
}

// FindBestMatch returns the highest scoring word. Equal scores prefer the
// word whose byte length is closest to the bag total, then the earliest word.
// The second value is false when no word scores above zero.
func FindBestMatch(dict model.Dictionary, bag model.LetterCount) (model.MatchResult, bool) {
	total := bag.Total()
	best := model.MatchResult{Difference: math.MaxInt64}
	for _, word := range dict {
		score := Score(word, bag)
		diff := abs(int64(len(word)) - total)
		if score > best.Score || (score == best.Score && diff < best.Difference) {
			best = model.MatchResult{Word: word, Score: score, Difference: diff}
		}
	}
	if best.Score == 0 {
		return model.MatchResult{}, false
	}
	return best, true
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
