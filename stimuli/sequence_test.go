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

func TestValidSequence(t *testing.T) {
	a := Entry{Target: Object{SubID: "a"}}
	b := Entry{Target: Object{SubID: "b"}}

	assert.True(t, ValidSequence(nil))
	assert.True(t, ValidSequence([]Entry{a}))
	assert.True(t, ValidSequence([]Entry{a, b, a, b}))
	assert.False(t, ValidSequence([]Entry{a, b, b, a}))
}

func TestGenerate(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name string
		opts Options
	}{
		{"default", Options{NumRounds: 8, OcclusionBudget: DefaultOcclusionBudget}},
		{"repeated blocks", Options{NumRounds: 24, OcclusionBudget: DefaultOcclusionBudget}},
		{"mixed contexts", Options{
			NumRounds:       16,
			OcclusionBudget: 3,
			ContextTypes: []ContextType{
				{Context: Far, Occlusions: Irrelevant, NumOccluded: 2},
				{Context: Close, Occlusions: Irrelevant, NumOccluded: 1},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(c, tt.opts, testRand())
			require.NoError(t, err)

			trials, contexts, err := g.Generate()
			require.NoError(t, err)
			require.Len(t, trials, tt.opts.NumRounds)
			require.Len(t, contexts, tt.opts.NumRounds)

			for i := range trials {
				tr := trials[i]
				ct := contexts[i]
				target := tr.Target()

				if i+1 < len(trials) {
					assert.NotEqual(t, target.SubID, trials[i+1].Target().SubID, "adjacent targets at %d", i)
				}

				distractors := tr.Distractors()
				assert.Contains(t, DistractorCounts, len(distractors))
				assert.Equal(t, StatusTarget, tr.Objects[len(tr.Objects)-1].TargetStatus)
				for _, d := range distractors {
					assert.True(t, Eligible(ct.Context, target.Object, d.Object))
				}

				for _, r := range Roles {
					assert.Len(t, tr.Occlusions.For(r), g.opts.OcclusionBudget)

					cells := map[Cell]bool{}
					for _, s := range tr.Objects {
						p := s.Coords(r)
						assert.True(t, p.Valid())
						assert.False(t, cells[p.Cell], "two objects share %v for %s", p.Cell, r)
						cells[p.Cell] = true
					}
				}
			}
		})
	}
}

func TestGenerateCoversCatalogEvenly(t *testing.T) {
	c := testCatalog(t)
	g, err := NewGenerator(c, Options{NumRounds: 16, OcclusionBudget: 2}, testRand())
	require.NoError(t, err)

	seq, err := g.SampleSequence()
	require.NoError(t, err)

	counts := map[string]int{}
	for _, e := range seq {
		counts[e.Target.SubID]++
	}
	for _, o := range c {
		assert.Equal(t, 2, counts[o.SubID], o.SubID)
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	c := testCatalog(t)
	opts := Options{NumRounds: 8, OcclusionBudget: 2}

	g1, err := NewGenerator(c, opts, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)
	g2, err := NewGenerator(c, opts, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)

	t1, _, err := g1.Generate()
	require.NoError(t, err)
	t2, _, err := g2.Generate()
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
}

func TestSampleTrialGeometry(t *testing.T) {
	c := testCatalog(t)
	g, err := NewGenerator(c, Options{NumRounds: 8, OcclusionBudget: 2}, testRand())
	require.NoError(t, err)

	tr, err := g.SampleTrial(find(t, c, "husky"), DefaultContextTypes[0])
	require.NoError(t, err)

	for _, s := range tr.Objects {
		assert.Equal(t, 450, s.Width)
		assert.Equal(t, 450, s.Height)

		p := s.SpeakerCoords
		assert.Equal(t, 600*(p.X-1)+300, p.CenterX)
		assert.Equal(t, 600*(p.Y-1)+300, p.CenterY)
		assert.Equal(t, p.CenterX-225, p.TrueX)
		assert.Equal(t, p.CenterX-100, p.GridPixelX)
		assert.Equal(t, p.CenterY-100, p.GridPixelY)
		assert.Equal(t, 600*(p.X-1), p.UpperLeftX)
	}
}

func TestSampleSequenceGivesUp(t *testing.T) {
	// Two entries of the same identity can never be separated.
	c := Catalog{{SubID: "a", Shape: "x"}, {SubID: "a", Shape: "y"}}
	g := &Generator{
		catalog: c,
		opts:    Options{NumRounds: 2, MaxAttempts: 25}.withDefaults(),
		rng:     testRand(),
	}

	_, err := g.SampleSequence()
	var ue *UnsatisfiableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "sequence", ue.Stage)
	assert.Equal(t, 25, ue.Attempts)
}
