/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stim(o Object, status TargetStatus, speaker, listener Cell) Stimulus {
	return Stimulus{
		Object:         o,
		TargetStatus:   status,
		SpeakerCoords:  Placement{Cell: speaker},
		ListenerCoords: Placement{Cell: listener},
	}
}

func trialObjects(t *testing.T) []Stimulus {
	c := testCatalog(t)
	return []Stimulus{
		stim(find(t, c, "tabby"), StatusDistractor, Cell{1, 1}, Cell{3, 3}),
		stim(find(t, c, "eagle"), StatusDistractor, Cell{2, 1}, Cell{2, 2}),
		stim(find(t, c, "desk"), StatusDistractor, Cell{3, 1}, Cell{1, 2}),
		stim(find(t, c, "husky"), StatusTarget, Cell{2, 2}, Cell{1, 1}),
	}
}

func TestSampleOcclusionsCritical(t *testing.T) {
	objects := trialObjects(t)
	ct := ContextType{Context: Close, Occlusions: Critical, NumOccluded: 2}
	rng := testRand()

	for range 50 {
		occ, err := SampleOcclusions(rng, objects, ct, 3)
		require.NoError(t, err)

		require.Len(t, occ.SpeakerCoords, 3)
		require.Len(t, occ.ListenerCoords, 3)

		// The critical object (tabby) is always hidden, on each role's own cell.
		assert.Equal(t, Cell{1, 1}, occ.SpeakerCoords[0])
		assert.Equal(t, Cell{3, 3}, occ.ListenerCoords[0])

		assertEmptyTopUp(t, objects, occ, 2)
	}
}

func TestSampleOcclusionsIrrelevant(t *testing.T) {
	objects := trialObjects(t)
	ct := ContextType{Context: Far, Occlusions: Irrelevant, NumOccluded: 1}
	rng := testRand()

	for range 50 {
		occ, err := SampleOcclusions(rng, objects, ct, DefaultOcclusionBudget)
		require.NoError(t, err)
		require.Len(t, occ.SpeakerCoords, DefaultOcclusionBudget)
		require.Len(t, occ.ListenerCoords, DefaultOcclusionBudget)

		hiddenSpeaker := occ.SpeakerCoords[0]
		assert.Contains(t, []Cell{{2, 1}, {3, 1}}, hiddenSpeaker, "only eagle or desk are irrelevant")

		assertEmptyTopUp(t, objects, occ, 1)
	}
}

func assertEmptyTopUp(t *testing.T, objects []Stimulus, occ Occlusions, numOccluded int) {
	t.Helper()
	for _, r := range Roles {
		cells := occ.For(r)
		seen := map[Cell]bool{}
		for i, c := range cells {
			assert.True(t, c.Valid())
			assert.False(t, seen[c], "cell %v occluded twice for %s", c, r)
			seen[c] = true
			if i < numOccluded {
				continue
			}
			for _, s := range objects {
				assert.NotEqual(t, s.Coords(r).Cell, c, "empty occlusion on an occupied cell for %s", r)
			}
		}
	}
}

func TestSampleOcclusionsPoolTooSmall(t *testing.T) {
	objects := trialObjects(t)

	_, err := SampleOcclusions(testRand(), objects, ContextType{Context: Close, Occlusions: Irrelevant, NumOccluded: 3}, 3)
	assert.ErrorIs(t, err, ErrPoolTooSmall)

	// Without a same-shape distractor there is nothing critical to hide.
	_, err = SampleOcclusions(testRand(), objects[1:], ContextType{Context: Far, Occlusions: Critical, NumOccluded: 1}, 2)
	assert.ErrorIs(t, err, ErrPoolTooSmall)
}

func TestSampleOcclusionsUnknownPolicy(t *testing.T) {
	_, err := SampleOcclusions(testRand(), trialObjects(t), ContextType{Context: Far, Occlusions: "partial", NumOccluded: 1}, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPoolTooSmall)
}
