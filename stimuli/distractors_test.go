/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func testCatalog(t *testing.T) Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func find(t *testing.T, c Catalog, subID string) Object {
	t.Helper()
	for _, o := range c {
		if o.SubID == subID {
			return o
		}
	}
	t.Fatalf("no object %q in catalog", subID)
	return Object{}
}

func TestEligible(t *testing.T) {
	c := testCatalog(t)
	husky := find(t, c, "husky")
	dalmatian := find(t, c, "dalmatian")
	eagle := find(t, c, "eagle")

	assert.False(t, Eligible(Close, husky, husky), "target is never its own distractor")
	assert.True(t, Eligible(Close, husky, dalmatian))
	assert.False(t, Eligible(Far, husky, dalmatian), "far excludes shared shape")
	assert.True(t, Eligible(Far, husky, eagle))
	assert.True(t, Eligible(Basic, husky, dalmatian))
	assert.True(t, Eligible(Sub, husky, eagle))
}

func TestDistractorsSatisfy(t *testing.T) {
	c := testCatalog(t)
	husky := find(t, c, "husky")
	tabby := find(t, c, "tabby")
	dalmatian := find(t, c, "dalmatian")
	eagle := find(t, c, "eagle")
	desk := find(t, c, "desk")

	assert.True(t, DistractorsSatisfy([]Object{tabby, eagle}, husky, Basic), "tabby shares the quadruped shape")
	assert.False(t, DistractorsSatisfy([]Object{eagle, desk}, husky, Basic))
	assert.False(t, DistractorsSatisfy([]Object{tabby, eagle}, husky, Sub), "tabby is a cat, not a dog")
	assert.True(t, DistractorsSatisfy([]Object{dalmatian, eagle}, husky, Sub))
	assert.True(t, DistractorsSatisfy([]Object{eagle, desk}, husky, Far))
	assert.True(t, DistractorsSatisfy([]Object{eagle, desk}, husky, Close))
}

func TestSampleDistractors(t *testing.T) {
	c := testCatalog(t)
	rng := testRand()

	contexts := []ContextType{
		{Context: Close, Occlusions: Irrelevant, NumOccluded: 1},
		{Context: Far, Occlusions: Irrelevant, NumOccluded: 1},
		{Context: Basic, Occlusions: Critical, NumOccluded: 1},
		{Context: Sub, Occlusions: Critical, NumOccluded: 1},
	}

	for _, ct := range contexts {
		for _, target := range c {
			if !Feasible(target, ct, c) {
				continue
			}
			for range 20 {
				d, err := SampleDistractors(rng, target, ct, c, DefaultMaxAttempts)
				require.NoError(t, err, "%s / %s", ct, target.SubID)
				assert.Contains(t, DistractorCounts, len(d))
				for _, o := range d {
					assert.True(t, Eligible(ct.Context, target, o), "%s not eligible for %s under %s", o.SubID, target.SubID, ct)
				}
				assert.True(t, DistractorsSatisfy(d, target, ct.Context))

				seen := map[string]bool{}
				for _, o := range d {
					assert.False(t, seen[o.SubID], "duplicate distractor %s", o.SubID)
					seen[o.SubID] = true
				}
			}
		}
	}
}

func TestSampleDistractorsGivesUp(t *testing.T) {
	c := testCatalog(t)
	desk := find(t, c, "desk")

	_, err := SampleDistractors(testRand(), desk, ContextType{Context: Sub, Occlusions: Irrelevant}, c, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsatisfiable)

	var ue *UnsatisfiableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 50, ue.Attempts)
}

func TestSampleSize(t *testing.T) {
	rng := testRand()
	items := []int{1, 2, 3, 4, 5}

	got := sampleSize(rng, items, 3)
	assert.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items, "input is not reordered")

	assert.Len(t, sampleSize(rng, items, 10), 5)
	assert.Empty(t, sampleSize(rng, items, 0))
}
