/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// DefaultOcclusionBudget is the number of occluded cells per role per trial.
const DefaultOcclusionBudget = 2

// SampleOcclusions chooses the hidden cells for both roles. Distractors that
// share the target's shape are critical, the rest irrelevant. The critical
// policy hides one critical object plus NumOccluded-1 irrelevant ones; the
// irrelevant policy hides NumOccluded irrelevant objects. Each role is then
// topped up to budget with cells that hold no object on that role's grid.
func SampleOcclusions(rng *rand.Rand, objects []Stimulus, ct ContextType, budget int) (Occlusions, error) {
	var target Stimulus
	var critical, irrelevant []Stimulus
	for _, s := range objects {
		if s.TargetStatus == StatusTarget {
			target = s
		}
	}
	for _, s := range objects {
		if s.TargetStatus != StatusDistractor {
			continue
		}
		if s.Shape == target.Shape {
			critical = append(critical, s)
		} else {
			irrelevant = append(irrelevant, s)
		}
	}

	var hidden []Stimulus
	switch ct.Occlusions {
	case Critical:
		if ct.NumOccluded < 1 || len(critical) < 1 || len(irrelevant) < ct.NumOccluded-1 {
			return Occlusions{}, ErrPoolTooSmall
		}
		hidden = append(hidden, critical[rng.IntN(len(critical))])
		hidden = append(hidden, sampleSize(rng, irrelevant, ct.NumOccluded-1)...)
	case Irrelevant:
		if len(irrelevant) < ct.NumOccluded {
			return Occlusions{}, ErrPoolTooSmall
		}
		hidden = sampleSize(rng, irrelevant, ct.NumOccluded)
	default:
		return Occlusions{}, fmt.Errorf("unrecognized occlusion policy %q", ct.Occlusions)
	}

	numEmpty := budget - len(hidden)
	if numEmpty < 0 {
		return Occlusions{}, ErrPoolTooSmall
	}

	var occ Occlusions
	for _, r := range Roles {
		cells, err := occludedCells(rng, objects, hidden, r, numEmpty)
		if err != nil {
			return Occlusions{}, err
		}
		if r == Speaker {
			occ.SpeakerCoords = cells
		} else {
			occ.ListenerCoords = cells
		}
	}

	return occ, nil
}

func occludedCells(rng *rand.Rand, objects, hidden []Stimulus, r Role, numEmpty int) ([]Cell, error) {
	occupied := make([]Cell, 0, len(objects))
	for _, s := range objects {
		occupied = append(occupied, s.Coords(r).Cell)
	}

	cells := make([]Cell, 0, len(hidden)+numEmpty)
	for _, s := range hidden {
		cells = append(cells, s.Coords(r).Cell)
	}

	var free []Cell
	for _, c := range AllCells() {
		if !slices.Contains(occupied, c) {
			free = append(free, c)
		}
	}
	if len(free) < numEmpty {
		return nil, ErrPoolTooSmall
	}

	return append(cells, sampleSize(rng, free, numEmpty)...), nil
}
