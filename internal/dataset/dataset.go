// Package dataset loads dictionaries and test cases from text files.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/verte-zerg/letterfit/internal/model"
)

// LoadDictionary reads one word per line from the provided file path.
func LoadDictionary(path string) (model.Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dictionary.
			_ = cerr
		}
	}()
	words, err := ReadDictionary(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return words, nil
}

// ReadDictionary reads trimmed words in file order. Blank lines are dropped
// and duplicates are kept.
func ReadDictionary(r io.Reader) (model.Dictionary, error) {
	var words model.Dictionary
	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// LoadTestCases reads test cases from path. It also returns the number of
// malformed lines that were skipped.
func LoadTestCases(path string) ([]model.TestCase, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open test cases: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only test file.
			_ = cerr
		}
	}()
	cases, skipped, err := ReadTestCases(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read test cases: %w", err)
	}
	return cases, skipped, nil
}

// ReadTestCases parses lines of the form "<letter-spec>, <label>:<word>".
// Blank lines are ignored; lines without exactly one ", " separator are
// counted as skipped.
func ReadTestCases(r io.Reader) ([]model.TestCase, int, error) {
	var (
		cases   []model.TestCase
		skipped int
		lineNo  int
	)
	scanner := newLineScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tc, ok := parseTestCase(line)
		if !ok {
			skipped++
			continue
		}
		tc.Line = lineNo
		cases = append(cases, tc)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return cases, skipped, nil
}

func parseTestCase(line string) (model.TestCase, bool) {
	parts := strings.Split(line, ", ")
	if len(parts) != 2 {
		return model.TestCase{}, false
	}
	_, expected, _ := strings.Cut(parts[1], ":")
	return model.TestCase{Spec: parts[0], Expected: expected}, true
}

// newLineScanner returns a scanner without the default 64 KiB line cap, so
// a single long line does not abort the whole file.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	return scanner
}
