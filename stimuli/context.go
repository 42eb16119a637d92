/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"fmt"
	"strconv"
	"strings"
)

// Context controls which catalog objects may serve as distractors.
type Context string

const (
	Close Context = "close"
	Far   Context = "far"
	Basic Context = "basic"
	Sub   Context = "sub"
)

func (c Context) valid() bool {
	switch c {
	case Close, Far, Basic, Sub:
		return true
	}
	return false
}

// OcclusionPolicy decides which distractors get hidden.
type OcclusionPolicy string

const (
	Critical   OcclusionPolicy = "critical"
	Irrelevant OcclusionPolicy = "irrelevant"
)

func (p OcclusionPolicy) valid() bool {
	return p == Critical || p == Irrelevant
}

// ContextType describes one trial condition.
type ContextType struct {
	Context     Context         `json:"context"`
	Occlusions  OcclusionPolicy `json:"occlusions"`
	NumOccluded int             `json:"numObjsOccluded"`
}

func (ct ContextType) String() string {
	return fmt.Sprintf("%s:%s:%d", ct.Context, ct.Occlusions, ct.NumOccluded)
}

// DefaultContextTypes is the single condition used when none is configured.
var DefaultContextTypes = []ContextType{
	{Context: Far, Occlusions: Irrelevant, NumOccluded: 1},
}

// ParseContextType parses "context:policy:count", e.g. "far:irrelevant:1".
func ParseContextType(s string) (ContextType, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return ContextType{}, fmt.Errorf("context type %q: want context:policy:count", s)
	}

	ct := ContextType{
		Context:    Context(strings.ToLower(parts[0])),
		Occlusions: OcclusionPolicy(strings.ToLower(parts[1])),
	}
	if !ct.Context.valid() {
		return ContextType{}, fmt.Errorf("context type %q: unrecognized context %q", s, parts[0])
	}
	if !ct.Occlusions.valid() {
		return ContextType{}, fmt.Errorf("context type %q: unrecognized occlusion policy %q", s, parts[1])
	}

	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 0 {
		return ContextType{}, fmt.Errorf("context type %q: invalid occluded count %q", s, parts[2])
	}
	ct.NumOccluded = n

	return ct, nil
}

// ParseContextTypes parses a list of context type strings.
func ParseContextTypes(list []string) ([]ContextType, error) {
	out := make([]ContextType, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		ct, err := ParseContextType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}
