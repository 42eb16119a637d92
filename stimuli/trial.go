/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

type TargetStatus string

const (
	StatusTarget     TargetStatus = "target"
	StatusDistractor TargetStatus = "distractor"
)

// Stimulus is a catalog object placed on both roles' grids for one trial.
// The two placements are independent.
type Stimulus struct {
	Object
	TargetStatus   TargetStatus `json:"targetStatus"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
	SpeakerCoords  Placement    `json:"speakerCoords"`
	ListenerCoords Placement    `json:"listenerCoords"`
}

// Coords returns the stimulus placement seen by role r.
func (s Stimulus) Coords(r Role) Placement {
	if r == Listener {
		return s.ListenerCoords
	}
	return s.SpeakerCoords
}

// Occlusions holds the hidden cells for each role.
type Occlusions struct {
	SpeakerCoords  []Cell `json:"speakerCoords"`
	ListenerCoords []Cell `json:"listenerCoords"`
}

func (o Occlusions) For(r Role) []Cell {
	if r == Listener {
		return o.ListenerCoords
	}
	return o.SpeakerCoords
}

// Trial is one round's realized stimulus configuration. The target is the
// last entry of Objects.
type Trial struct {
	Objects    []Stimulus `json:"objects"`
	Occlusions Occlusions `json:"occlusions"`
}

func (t Trial) Target() Stimulus {
	for _, s := range t.Objects {
		if s.TargetStatus == StatusTarget {
			return s
		}
	}
	return Stimulus{}
}

func (t Trial) Distractors() []Stimulus {
	out := make([]Stimulus, 0, len(t.Objects))
	for _, s := range t.Objects {
		if s.TargetStatus == StatusDistractor {
			out = append(out, s)
		}
	}
	return out
}
