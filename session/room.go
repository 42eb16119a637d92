/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"time"

	"github.com/Seednode/pairlab/stimuli"
)

// Threshold is the number of participants a room needs before play begins.
const Threshold = len(stimuli.Roles)

type Phase int

const (
	Pending Phase = iota
	InRound
	Finished
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case InRound:
		return "in_round"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Slot is a seat in a room. The seat keeps its participant ID after a
// disconnect; only the connection is cleared.
type Slot struct {
	ID      string
	Role    stimuli.Role
	conn    Conn
	visible bool
}

func (s *Slot) Occupied() bool {
	return s.conn != nil
}

// Room is one matched pair of participants and their shared trial list.
// It is owned by the registry goroutine.
type Room struct {
	ID        string
	Threshold int
	Slots     []*Slot

	count     int // seats taken, for admission
	phase     Phase
	round     int
	numRounds int
	trials    []stimuli.Trial
	contexts  []stimuli.ContextType

	responses map[string]bool
	armed     bool
	timers    []Timer

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(id string, numRounds int, now time.Time) *Room {
	return &Room{
		ID:         id,
		Threshold:  Threshold,
		round:      -1,
		numRounds:  numRounds,
		responses:  make(map[string]bool),
		createdAt:  now,
		lastActive: now,
	}
}

func (r *Room) Phase() Phase {
	return r.phase
}

func (r *Room) Round() int {
	return r.round
}

// seat places a participant in the first vacant slot and returns its index.
func (r *Room) seat(id string, conn Conn) int {
	for i, s := range r.Slots {
		if !s.Occupied() {
			r.Slots[i] = &Slot{ID: id, Role: stimuli.Roles[i], conn: conn, visible: true}
			r.count++
			return i
		}
	}

	i := len(r.Slots)
	r.Slots = append(r.Slots, &Slot{ID: id, Role: stimuli.Roles[i], conn: conn, visible: true})
	r.count++
	return i
}

func (r *Room) slotOf(id string) *Slot {
	for _, s := range r.Slots {
		if s.ID == id && s.Occupied() {
			return s
		}
	}
	return nil
}

func (r *Room) occupants() []*Slot {
	out := make([]*Slot, 0, len(r.Slots))
	for _, s := range r.Slots {
		if s.Occupied() {
			out = append(out, s)
		}
	}
	return out
}

// sendAll delivers msg to every connected occupant except skip.
func (r *Room) sendAll(msg any, skip string) {
	for _, s := range r.occupants() {
		if s.ID == skip {
			continue
		}
		s.conn.Send(msg)
	}
}

func (r *Room) allResponded() bool {
	occupants := r.occupants()
	if len(occupants) == 0 {
		return false
	}
	for _, s := range occupants {
		if !r.responses[s.ID] {
			return false
		}
	}
	return true
}

func (r *Room) stopTimers() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}
