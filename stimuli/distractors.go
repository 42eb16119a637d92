/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"math/rand/v2"
	"slices"
)

// DistractorCounts are the set sizes a trial may draw from.
var DistractorCounts = []int{2, 3, 4}

const (
	MinDistractors = 2
	MaxDistractors = 4
)

// Eligible reports whether candidate may be drawn as a distractor for target
// under context c. The target itself is never eligible.
func Eligible(c Context, target, candidate Object) bool {
	if candidate.SubID == target.SubID {
		return false
	}
	if c == Far {
		return candidate.Shape != target.Shape
	}
	return true
}

// DistractorsSatisfy checks the context postcondition on a drawn set: basic
// contexts need a distractor sharing the target's shape, sub contexts need
// one sharing its basic category.
func DistractorsSatisfy(distractors []Object, target Object, c Context) bool {
	switch c {
	case Basic:
		return slices.ContainsFunc(distractors, func(o Object) bool { return o.Shape == target.Shape })
	case Sub:
		return slices.ContainsFunc(distractors, func(o Object) bool { return o.Basic == target.Basic })
	default:
		return true
	}
}

func eligiblePool(c Context, target Object, catalog Catalog) []Object {
	pool := make([]Object, 0, len(catalog))
	for _, o := range catalog {
		if Eligible(c, target, o) {
			pool = append(pool, o)
		}
	}
	return pool
}

// SampleDistractors draws a distractor set for target, retrying until the
// set has a size in DistractorCounts and passes DistractorsSatisfy.
func SampleDistractors(rng *rand.Rand, target Object, ct ContextType, catalog Catalog, maxAttempts int) ([]Object, error) {
	pool := eligiblePool(ct.Context, target, catalog)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		n := DistractorCounts[rng.IntN(len(DistractorCounts))]
		if n > len(pool) {
			continue
		}

		distractors := sampleSize(rng, pool, n)
		if DistractorsSatisfy(distractors, target, ct.Context) {
			return distractors, nil
		}
	}

	return nil, &UnsatisfiableError{Stage: "distractors for " + target.SubID, Attempts: maxAttempts}
}

// sampleSize returns n distinct elements of items in random order.
func sampleSize[T any](rng *rand.Rand, items []T, n int) []T {
	n = min(n, len(items))
	pool := slices.Clone(items)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
