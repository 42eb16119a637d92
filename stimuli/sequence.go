/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

const DefaultMaxAttempts = 10000

// Options configures a Generator.
type Options struct {
	NumRounds       int
	ContextTypes    []ContextType
	OcclusionBudget int
	MaxAttempts     int
	CellSize        int
}

func (o Options) withDefaults() Options {
	if len(o.ContextTypes) == 0 {
		o.ContextTypes = DefaultContextTypes
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.CellSize <= 0 {
		o.CellSize = DefaultCellSize
	}
	return o
}

// Entry is one position of a target/context-type sequence.
type Entry struct {
	Target      Object
	ContextType ContextType
}

// Generator builds trial lists by rejection sampling. It is not safe for
// concurrent use; the random source belongs to the caller's goroutine.
type Generator struct {
	catalog Catalog
	opts    Options
	rng     *rand.Rand
}

// NewGenerator validates the catalog against opts and returns a generator
// drawing from rng. It also generates and discards one full trial list, so
// options whose sequences cannot be found within MaxAttempts fail here
// instead of at every room start.
func NewGenerator(catalog Catalog, opts Options, rng *rand.Rand) (*Generator, error) {
	opts = opts.withDefaults()
	if err := Validate(catalog, opts); err != nil {
		return nil, err
	}

	g := &Generator{catalog: catalog, opts: opts, rng: rng}
	if _, _, err := g.Generate(); err != nil {
		return nil, fmt.Errorf("%w: %d rounds: %w", ErrInvalidConfig, opts.NumRounds, err)
	}

	return g, nil
}

func (g *Generator) NumRounds() int {
	return g.opts.NumRounds
}

// ValidSequence reports whether no two adjacent entries share a target.
func ValidSequence(entries []Entry) bool {
	for i := 0; i+1 < len(entries); i++ {
		if entries[i].Target.SubID == entries[i+1].Target.SubID {
			return false
		}
	}
	return true
}

// SampleSequence concatenates shuffled blocks of catalog × context types
// until a candidate passes ValidSequence.
func (g *Generator) SampleSequence() ([]Entry, error) {
	block := make([]Entry, 0, len(g.catalog)*len(g.opts.ContextTypes))
	for _, target := range g.catalog {
		for _, ct := range g.opts.ContextTypes {
			block = append(block, Entry{Target: target, ContextType: ct})
		}
	}
	blocks := g.opts.NumRounds / len(block)

	for attempt := 0; attempt < g.opts.MaxAttempts; attempt++ {
		candidate := make([]Entry, 0, g.opts.NumRounds)
		for range blocks {
			shuffled := append([]Entry(nil), block...)
			g.rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			candidate = append(candidate, shuffled...)
		}
		if ValidSequence(candidate) {
			return candidate, nil
		}
	}

	return nil, &UnsatisfiableError{Stage: "sequence", Attempts: g.opts.MaxAttempts}
}

// Generate returns the trial list and the parallel context-type list.
func (g *Generator) Generate() ([]Trial, []ContextType, error) {
	seq, err := g.SampleSequence()
	if err != nil {
		return nil, nil, err
	}

	trials := make([]Trial, 0, len(seq))
	contexts := make([]ContextType, 0, len(seq))
	for _, e := range seq {
		t, err := g.SampleTrial(e.Target, e.ContextType)
		if err != nil {
			return nil, nil, err
		}
		trials = append(trials, t)
		contexts = append(contexts, e.ContextType)
	}

	return trials, contexts, nil
}

// SampleTrial realizes one trial: distractors, fresh grid cells for each
// role, pixel geometry, and occlusions. Layouts whose distractors cannot
// satisfy the occlusion policy are drawn again.
func (g *Generator) SampleTrial(target Object, ct ContextType) (Trial, error) {
	for attempt := 0; attempt < g.opts.MaxAttempts; attempt++ {
		distractors, err := SampleDistractors(g.rng, target, ct, g.catalog, g.opts.MaxAttempts)
		if err != nil {
			return Trial{}, err
		}

		objects := g.layout(distractors, target)

		occ, err := SampleOcclusions(g.rng, objects, ct, g.opts.OcclusionBudget)
		if errors.Is(err, ErrPoolTooSmall) {
			continue
		}
		if err != nil {
			return Trial{}, err
		}

		return Trial{Objects: objects, Occlusions: occ}, nil
	}

	return Trial{}, &UnsatisfiableError{Stage: "trial for " + target.SubID, Attempts: g.opts.MaxAttempts}
}

func (g *Generator) layout(distractors []Object, target Object) []Stimulus {
	all := append(append([]Object(nil), distractors...), target)
	speaker := sampleSize(g.rng, AllCells(), len(all))
	listener := sampleSize(g.rng, AllCells(), len(all))

	size := g.opts.CellSize * 3 / 4

	objects := make([]Stimulus, len(all))
	for i, o := range all {
		status := StatusDistractor
		if i == len(all)-1 {
			status = StatusTarget
		}
		objects[i] = Stimulus{
			Object:         o,
			TargetStatus:   status,
			Width:          size,
			Height:         size,
			SpeakerCoords:  place(speaker[i], g.opts.CellSize, size, size),
			ListenerCoords: place(listener[i], g.opts.CellSize, size, size),
		}
	}
	return objects
}
