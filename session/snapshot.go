/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import "github.com/Seednode/pairlab/stimuli"

// snapshot captures the state clients see. Trial info is present once the
// room has entered its first round.
func snapshot(room *Room) Snapshot {
	s := Snapshot{
		Type:             TypeState,
		Version:          SnapshotVersion,
		RoomID:           room.ID,
		Started:          room.phase != Pending,
		Finished:         room.phase == Finished,
		Threshold:        room.Threshold,
		ParticipantCount: room.count,
		RoundIndex:       room.round,
		NumRounds:        room.numRounds,
		Participants:     make([]ParticipantStatus, 0, len(room.Slots)),
	}

	roles := make(map[string]stimuli.Role, len(room.Slots))
	for _, slot := range room.Slots {
		s.Participants = append(s.Participants, ParticipantStatus{
			ID:        slot.ID,
			Role:      slot.Role,
			Connected: slot.Occupied(),
			Visible:   slot.visible,
		})
		roles[slot.ID] = slot.Role
	}

	if room.round >= 0 && room.round < len(room.trials) {
		s.TrialInfo = &TrialInfo{
			CurrentStimulusSet: room.trials[room.round],
			CurrentContextType: room.contexts[room.round],
			RoleAssignment:     roles,
		}
	}

	return s
}
