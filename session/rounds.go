/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Round state machine: Pending -> InRound(0) ... InRound(n-1) -> Finished.
// Every transition after activation is armed by an advance signal and fires
// after FeedbackDelay. A fired transition carries the round it was armed for
// and re-checks the live room before acting.

// activate generates the trial list and enters round 0.
func (r *Registry) activate(room *Room) {
	log := r.log.WithField("room", room.ID)

	trials, contexts, err := r.gen.Generate()
	if err != nil {
		log.WithError(err).Error("GAMES: Failed to generate trial list")
		room.sendAll(ErrorMessage{Type: TypeError, Message: "unable to prepare trials for this session"}, "")
		return
	}

	room.trials = trials
	room.contexts = contexts
	room.numRounds = len(trials)
	log.Infof("GAMES: Starting room with %d participants and %d rounds", room.count, room.numRounds)

	r.enterRound(room, 0)
}

func (r *Registry) enterRound(room *Room, k int) {
	room.stopTimers()
	room.phase = InRound
	room.round = k
	room.armed = false
	clear(room.responses)

	room.sendAll(NewRoundMessage{Type: TypeNewRound, Round: k}, "")

	if r.cfg.RoundTimeout > 0 {
		id := room.ID
		room.timers = append(room.timers, r.sched.AfterFunc(r.cfg.RoundTimeout, func() {
			r.enqueue(func() { r.signal(id, k) })
		}))
	}
}

// signal arms the transition out of round k if the room is still on it.
func (r *Registry) signal(roomID string, k int) {
	room, ok := r.rooms[roomID]
	if !ok || room.phase != InRound || room.round != k {
		return
	}
	r.arm(room, k, r.cfg.FeedbackDelay)
}

func (r *Registry) arm(room *Room, k int, delay time.Duration) {
	if room.armed {
		return
	}
	room.armed = true

	id := room.ID
	room.timers = append(room.timers, r.sched.AfterFunc(delay, func() {
		r.enqueue(func() { r.fire(id, k) })
	}))
}

func (r *Registry) respond(roomID, participantID string) error {
	room, _, err := r.lookup(roomID, participantID)
	if err != nil {
		return err
	}
	if room.phase != InRound {
		return nil
	}

	room.responses[participantID] = true
	if room.allResponded() {
		r.arm(room, room.round, r.cfg.FeedbackDelay)
	}
	return nil
}

func (r *Registry) forceAdvance(roomID string) error {
	room, ok := r.rooms[roomID]
	if !ok {
		r.log.WithField("room", roomID).Warn("GAMES: Advance for unknown room")
		return ErrRoomNotFound
	}
	if room.phase != InRound {
		return nil
	}
	room.lastActive = r.now()
	r.arm(room, room.round, r.cfg.FeedbackDelay)
	return nil
}

// fire performs the transition out of round k.
func (r *Registry) fire(roomID string, k int) {
	room, ok := r.rooms[roomID]
	if !ok {
		r.log.WithField("room", roomID).Debug("GAMES: Round timer fired for a removed room")
		return
	}
	if room.phase != InRound || room.round != k {
		return
	}

	log := r.log.WithFields(logrus.Fields{"room": roomID, "round": k})
	if k == room.numRounds-1 {
		room.phase = Finished
		room.armed = false
		room.stopTimers()
		room.sendAll(FinishedMessage{Type: TypeFinished}, "")
		log.Info("GAMES: Room finished")
	} else {
		r.enterRound(room, k+1)
		log.Debug("GAMES: Advanced round")
	}

	r.broadcast(room)
}
