// Package sample reorders and subsets test cases.
package sample

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/letterfit/internal/model"
)

// Sampler shuffles and samples test cases with a seeded source.
type Sampler struct {
	rnd  *rand.Rand
	seed int64
}

// New returns a Sampler for seed. A zero seed is replaced with the
// current time.
func New(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rnd: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed in use, so a run can be repeated.
func (s *Sampler) Seed() int64 {
	return s.seed
}

// Shuffle returns a shuffled copy of cases.
func (s *Sampler) Shuffle(cases []model.TestCase) []model.TestCase {
	out := append([]model.TestCase(nil), cases...)
	s.rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Sample returns n cases chosen uniformly without replacement, kept in
// their original order. n <= 0 or n >= len(cases) returns a copy of all.
func (s *Sampler) Sample(cases []model.TestCase, n int) []model.TestCase {
	if n <= 0 || n >= len(cases) {
		return append([]model.TestCase(nil), cases...)
	}
	picked := s.rnd.Perm(len(cases))[:n]
	keep := make([]bool, len(cases))
	for _, idx := range picked {
		keep[idx] = true
	}
	out := make([]model.TestCase, 0, n)
	for i, tc := range cases {
		if keep[i] {
			out = append(out, tc)
		}
	}
	return out
}
