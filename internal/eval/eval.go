// Package eval checks the matcher's guess for a single test case.
package eval

import (
	"github.com/verte-zerg/letterfit/internal/letterbag"
	"github.com/verte-zerg/letterfit/internal/match"
	"github.com/verte-zerg/letterfit/internal/model"
)

// Evaluate reports whether the best match for tc equals its expected word.
func Evaluate(tc model.TestCase, dict model.Dictionary) bool {
	return Check(tc, dict).Correct
}

// Check evaluates tc and keeps the guess and any parse error. A spec that
// fails to parse or yields no match is never correct.
func Check(tc model.TestCase, dict model.Dictionary) model.CaseResult {
	res := model.CaseResult{Case: tc}
	bag, err := letterbag.Parse(tc.Spec)
	if err != nil {
		res.Err = err
		return res
	}
	best, ok := match.FindBestMatch(dict, bag)
	if !ok {
		return res
	}
	res.Match = best
	res.Matched = true
	res.Correct = best.Word == tc.Expected
	return res
}
