/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session pairs participants into rooms and steps each room through
// its trial list. All room state is owned by a single Registry goroutine;
// every operation, including fired timers, runs there one at a time in
// arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Seednode/pairlab/stimuli"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrClosed             = errors.New("registry closed")
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotInRoom          = errors.New("participant not in room")
	ErrAlreadySeated      = errors.New("participant already seated")
	ErrInvalidParticipant = errors.New("missing participant id")
)

const maxChatLength = 500

// TrialGenerator produces a room's trial list at activation.
type TrialGenerator interface {
	Generate() ([]stimuli.Trial, []stimuli.ContextType, error)
	NumRounds() int
}

// Config holds round timing.
type Config struct {
	// FeedbackDelay defers every round transition after its advance signal.
	FeedbackDelay time.Duration
	// RoundTimeout, when positive, raises the advance signal for a round
	// that has run this long.
	RoundTimeout time.Duration
}

// RoomHandle tells a transport where its participant was seated.
type RoomHandle struct {
	RoomID string
	Seat   int // 1-based
	Role   stimuli.Role
}

// Stats summarizes the registry for status pages.
type Stats struct {
	Rooms        int `json:"rooms"`
	Pending      int `json:"pending"`
	Active       int `json:"active"`
	Finished     int `json:"finished"`
	Participants int `json:"participants"`
}

type Option func(*Registry)

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Registry) { r.log = l }
}

func WithScheduler(s Scheduler) Option {
	return func(r *Registry) { r.sched = s }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithIDs(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

// Registry tracks every room and serializes all operations on them.
type Registry struct {
	cfg   Config
	gen   TrialGenerator
	log   logrus.FieldLogger
	sched Scheduler
	now   func() time.Time
	newID func() string

	rooms map[string]*Room
	order []string // creation order, scanned on admission

	ops  chan func()
	done chan struct{}
}

func NewRegistry(cfg Config, gen TrialGenerator, opts ...Option) *Registry {
	r := &Registry{
		cfg:   cfg,
		gen:   gen,
		log:   logrus.StandardLogger(),
		sched: clockScheduler{},
		now:   time.Now,
		newID: uuid.NewString,
		rooms: make(map[string]*Room),
		ops:   make(chan func(), 64),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes operations until ctx is cancelled, then stops every timer.
func (r *Registry) Run(ctx context.Context) error {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			for _, room := range r.rooms {
				room.stopTimers()
			}
			return nil
		case op := <-r.ops:
			op()
		}
	}
}

// enqueue hands op to the registry goroutine without waiting for it.
func (r *Registry) enqueue(op func()) {
	select {
	case r.ops <- op:
	case <-r.done:
	}
}

// do runs op on the registry goroutine and waits for it to finish.
func (r *Registry) do(ctx context.Context, op func()) error {
	finished := make(chan struct{})

	select {
	case r.ops <- func() { op(); close(finished) }:
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Admit seats a participant in the first room below threshold, creating a
// room when none has space.
func (r *Registry) Admit(ctx context.Context, participantID string, conn Conn) (RoomHandle, error) {
	var h RoomHandle
	var err error
	if derr := r.do(ctx, func() { h, err = r.admit(participantID, conn) }); derr != nil {
		return RoomHandle{}, derr
	}
	return h, err
}

// Remove vacates a participant's seat, destroying the room when it was the
// last one occupied.
func (r *Registry) Remove(ctx context.Context, roomID, participantID string) error {
	var err error
	if derr := r.do(ctx, func() { err = r.remove(roomID, participantID) }); derr != nil {
		return derr
	}
	return err
}

// Respond records a participant's advance signal for the current round.
func (r *Registry) Respond(ctx context.Context, roomID, participantID string) error {
	var err error
	if derr := r.do(ctx, func() { err = r.respond(roomID, participantID) }); derr != nil {
		return derr
	}
	return err
}

// Advance schedules the next round transition regardless of responses.
func (r *Registry) Advance(ctx context.Context, roomID string) error {
	var err error
	if derr := r.do(ctx, func() { err = r.forceAdvance(roomID) }); derr != nil {
		return derr
	}
	return err
}

// Chat relays text to every occupant of the participant's room.
func (r *Registry) Chat(ctx context.Context, roomID, participantID, text string) error {
	var err error
	if derr := r.do(ctx, func() { err = r.chat(roomID, participantID, text) }); derr != nil {
		return derr
	}
	return err
}

// SetVisible records whether the participant's page currently has focus.
func (r *Registry) SetVisible(ctx context.Context, roomID, participantID string, visible bool) error {
	var err error
	if derr := r.do(ctx, func() { err = r.setVisible(roomID, participantID, visible) }); derr != nil {
		return derr
	}
	return err
}

// Dispatch routes a decoded inbound message. Unknown types are logged and
// dropped.
func (r *Registry) Dispatch(ctx context.Context, roomID, participantID string, msg Inbound) error {
	switch msg.Type {
	case TypeAdvance:
		return r.Respond(ctx, roomID, participantID)
	case TypeChat:
		return r.Chat(ctx, roomID, participantID, msg.Text)
	case TypeVisibility:
		if msg.Visible == nil {
			return fmt.Errorf("%s: missing visible flag", msg.Type)
		}
		return r.SetVisible(ctx, roomID, participantID, *msg.Visible)
	case TypeJoin:
		r.log.WithFields(logrus.Fields{"room": roomID, "participant": participantID}).
			Debug("GAMES: Ignoring repeated join")
		return nil
	default:
		r.log.WithFields(logrus.Fields{"room": roomID, "participant": participantID, "type": msg.Type}).
			Warn("GAMES: Dropping unrecognized message")
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

// Snapshot returns the current state of one room.
func (r *Registry) Snapshot(ctx context.Context, roomID string) (Snapshot, error) {
	var s Snapshot
	var err error
	derr := r.do(ctx, func() {
		room, ok := r.rooms[roomID]
		if !ok {
			err = ErrRoomNotFound
			return
		}
		s = snapshot(room)
	})
	if derr != nil {
		return Snapshot{}, derr
	}
	return s, err
}

func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.do(ctx, func() {
		for _, room := range r.rooms {
			s.Rooms++
			switch room.phase {
			case Pending:
				s.Pending++
			case InRound:
				s.Active++
			case Finished:
				s.Finished++
			}
			s.Participants += len(room.occupants())
		}
	})
	return s, err
}

// Reap closes rooms with no activity since cutoff and returns how many it closed.
func (r *Registry) Reap(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.do(ctx, func() {
		for _, id := range append([]string(nil), r.order...) {
			room := r.rooms[id]
			if !room.lastActive.Before(cutoff) {
				continue
			}
			room.sendAll(ErrorMessage{Type: TypeError, Message: "session timed out"}, "")
			for _, s := range room.occupants() {
				s.conn.Close()
			}
			r.destroy(room)
			n++
		}
	})
	return n, err
}

func (r *Registry) admit(participantID string, conn Conn) (RoomHandle, error) {
	if participantID == "" {
		return RoomHandle{}, ErrInvalidParticipant
	}
	for _, room := range r.rooms {
		if room.slotOf(participantID) != nil {
			return RoomHandle{}, fmt.Errorf("%w: %s in room %s", ErrAlreadySeated, participantID, room.ID)
		}
	}

	var room *Room
	for _, id := range r.order {
		if candidate := r.rooms[id]; candidate.count < candidate.Threshold {
			room = candidate
			break
		}
	}

	log := r.log.WithField("participant", participantID)
	if room == nil {
		room = newRoom(r.newID(), r.gen.NumRounds(), r.now())
		r.rooms[room.ID] = room
		r.order = append(r.order, room.ID)
		log.WithField("room", room.ID).Infof("GAMES: Created room (%d rooms)", len(r.rooms))
	}

	i := room.seat(participantID, conn)
	room.lastActive = r.now()
	log.WithFields(logrus.Fields{"room": room.ID, "seat": i + 1}).Info("GAMES: Participant joined")

	h := RoomHandle{RoomID: room.ID, Seat: i + 1, Role: stimuli.Roles[i]}
	conn.Send(JoinedMessage{Type: TypeJoined, RoomID: room.ID, Seat: h.Seat, Role: h.Role})
	room.sendAll(PeerMessage{Type: TypePeerJoined, Participant: participantID}, participantID)

	if room.count == room.Threshold && room.phase == Pending && room.trials == nil {
		r.activate(room)
	}
	r.broadcast(room)

	return h, nil
}

func (r *Registry) remove(roomID, participantID string) error {
	log := r.log.WithFields(logrus.Fields{"room": roomID, "participant": participantID})

	room, ok := r.rooms[roomID]
	if !ok {
		log.Warn("GAMES: Remove for unknown room")
		return ErrRoomNotFound
	}
	slot := room.slotOf(participantID)
	if slot == nil {
		log.Warn("GAMES: Remove for participant not in room")
		return ErrNotInRoom
	}
	room.lastActive = r.now()

	remaining := room.count
	if room.phase != Pending {
		remaining = len(room.occupants())
	}

	if remaining <= 1 {
		r.destroy(room)
		return nil
	}

	slot.conn = nil
	slot.visible = false
	delete(room.responses, participantID)
	if room.phase == Pending {
		room.count--
	}
	log.Info("GAMES: Participant left")

	room.sendAll(PeerMessage{Type: TypePeerLeft, Participant: participantID}, "")
	if room.phase == InRound && room.allResponded() {
		r.arm(room, room.round, r.cfg.FeedbackDelay)
	}
	r.broadcast(room)

	return nil
}

func (r *Registry) destroy(room *Room) {
	room.stopTimers()
	delete(r.rooms, room.ID)
	for i, id := range r.order {
		if id == room.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.WithField("room", room.ID).Infof("GAMES: Removed room (%d rooms)", len(r.rooms))
}

func (r *Registry) lookup(roomID, participantID string) (*Room, *Slot, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		r.log.WithFields(logrus.Fields{"room": roomID, "participant": participantID}).Warn("GAMES: Unknown room")
		return nil, nil, ErrRoomNotFound
	}
	slot := room.slotOf(participantID)
	if slot == nil {
		return room, nil, ErrNotInRoom
	}
	room.lastActive = r.now()
	return room, slot, nil
}

func (r *Registry) chat(roomID, participantID, text string) error {
	room, _, err := r.lookup(roomID, participantID)
	if err != nil {
		return err
	}
	if len(text) > maxChatLength {
		cut := maxChatLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	room.sendAll(ChatMessage{Type: TypeChatRelay, Participant: participantID, Text: text}, "")
	return nil
}

func (r *Registry) setVisible(roomID, participantID string, visible bool) error {
	room, slot, err := r.lookup(roomID, participantID)
	if err != nil {
		return err
	}
	if slot.visible == visible {
		return nil
	}
	slot.visible = visible
	r.broadcast(room)
	return nil
}

// broadcast sends the room snapshot to every connected occupant.
func (r *Registry) broadcast(room *Room) {
	room.sendAll(snapshot(room), "")
}
