/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import "github.com/Seednode/pairlab/stimuli"

// Inbound message types.
const (
	TypeJoin       = "join"
	TypeAdvance    = "advance"
	TypeChat       = "chat"
	TypeVisibility = "visibility"
)

// Inbound is a message from a participant, decoded from JSON or from the
// legacy token format.
type Inbound struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`    // chat
	Visible *bool  `json:"visible,omitempty"` // visibility
}

// Outbound message types.
const (
	TypeState      = "state"
	TypeJoined     = "join"
	TypePeerJoined = "peer_joined"
	TypeNewRound   = "new_round"
	TypeFinished   = "finished"
	TypePeerLeft   = "peer_left"
	TypeChatRelay  = "chat"
	TypeError      = "error"
)

// SnapshotVersion is bumped whenever Snapshot changes shape.
const SnapshotVersion = 1

// Snapshot is the room state sent to every occupant after each mutation.
type Snapshot struct {
	Type             string              `json:"type"` // "state"
	Version          int                 `json:"version"`
	RoomID           string              `json:"roomId"`
	Started          bool                `json:"started"`
	Finished         bool                `json:"finished"`
	Threshold        int                 `json:"threshold"`
	ParticipantCount int                 `json:"participantCount"`
	RoundIndex       int                 `json:"roundIndex"`
	NumRounds        int                 `json:"numRounds"`
	TrialInfo        *TrialInfo          `json:"trialInfo,omitempty"`
	Participants     []ParticipantStatus `json:"participants"`
}

// TrialInfo is the part of the trial list exposed for the current round.
type TrialInfo struct {
	CurrentStimulusSet stimuli.Trial           `json:"currentStimulusSet"`
	CurrentContextType stimuli.ContextType     `json:"currentContextType"`
	RoleAssignment     map[string]stimuli.Role `json:"roleAssignment"`
}

type ParticipantStatus struct {
	ID        string       `json:"id"`
	Role      stimuli.Role `json:"role"`
	Connected bool         `json:"connected"`
	Visible   bool         `json:"visible"`
}

// JoinedMessage acknowledges admission with the participant's seat number.
type JoinedMessage struct {
	Type   string       `json:"type"` // "join"
	RoomID string       `json:"roomId"`
	Seat   int          `json:"seat"`
	Role   stimuli.Role `json:"role"`
}

// PeerMessage announces another participant joining or leaving.
type PeerMessage struct {
	Type        string `json:"type"` // "peer_joined" or "peer_left"
	Participant string `json:"participant"`
}

type NewRoundMessage struct {
	Type  string `json:"type"` // "new_round"
	Round int    `json:"round"`
}

type FinishedMessage struct {
	Type string `json:"type"` // "finished"
}

type ChatMessage struct {
	Type        string `json:"type"` // "chat"
	Participant string `json:"participant"`
	Text        string `json:"text"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
