/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import "fmt"

// Role is one of the two fixed perspectives on a room. Each role has its own
// coordinate assignment for every stimulus.
type Role int

const (
	Speaker Role = iota
	Listener
)

// Roles lists both roles in seat order.
var Roles = [...]Role{Speaker, Listener}

func (r Role) String() string {
	switch r {
	case Speaker:
		return "speaker"
	case Listener:
		return "listener"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if r != Speaker && r != Listener {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "speaker":
		*r = Speaker
	case "listener":
		*r = Listener
	default:
		return fmt.Errorf("unknown role %q", string(b))
	}
	return nil
}
