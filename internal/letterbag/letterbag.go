// Package letterbag parses letter specs into letter counts.
package letterbag

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/verte-zerg/letterfit/internal/model"
)

// ErrInvalidCount reports a token whose count is not a valid integer.
var ErrInvalidCount = errors.New("invalid letter count")

var tokenPattern = regexp.MustCompile(`([\p{L}\p{M}\p{Nd}\p{Pc}]+):(\p{Nd}+)`)

// Parse extracts every "letters:count" token from spec. Later tokens
// overwrite earlier ones with the same key.
func Parse(spec string) (model.LetterCount, error) {
	matches := tokenPattern.FindAllStringSubmatch(spec, -1)
	counts := make(model.LetterCount, len(matches))
	for _, m := range matches {
		n, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCount, m[0])
		}
		counts[m[1]] = int64(n)
	}
	return counts, nil
}
