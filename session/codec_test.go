/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok := EncodeToken("chatMessage", "the one on the left. no, the other one")
	assert.Equal(t, "chatMessage.the one on the left- no, the other one", tok)

	typ, fields := DecodeToken(tok)
	assert.Equal(t, "chatMessage", typ)
	assert.Equal(t, []string{"the one on the left. no, the other one"}, fields)

	typ, fields = DecodeToken("advance")
	assert.Equal(t, "advance", typ)
	assert.Empty(t, fields)
}

func TestTokenHyphensAreLossy(t *testing.T) {
	_, fields := DecodeToken(EncodeToken("chatMessage", "well-known"))
	assert.Equal(t, []string{"well.known"}, fields)
}

func TestParseLegacy(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		in   string
		want Inbound
	}{
		{"advance", Inbound{Type: TypeAdvance}},
		{"advance.extra", Inbound{Type: TypeAdvance}},
		{EncodeToken("chatMessage", "a.b"), Inbound{Type: TypeChat, Text: "a.b"}},
		{"chatMessage.one.two", Inbound{Type: TypeChat, Text: "one.two"}},
		{"h.visible", Inbound{Type: TypeVisibility, Visible: &yes}},
		{"h.hidden", Inbound{Type: TypeVisibility, Visible: &no}},
		{"h.true", Inbound{Type: TypeVisibility, Visible: &yes}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLegacy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLegacyErrors(t *testing.T) {
	// Trials are fixed once generated, so object moves and speed changes are not accepted.
	for _, in := range []string{"objMove.1.2", "objMove.1.2.3", "s.3"} {
		_, err := ParseLegacy(in)
		assert.ErrorIs(t, err, ErrUnknownMessage, in)
	}

	for _, in := range []string{"chatMessage", "h", "h.maybe"} {
		_, err := ParseLegacy(in)
		assert.Error(t, err, in)
		assert.NotErrorIs(t, err, ErrUnknownMessage, in)
	}
}

func TestInboundJSON(t *testing.T) {
	var msg Inbound
	require.NoError(t, json.Unmarshal([]byte(`{"type":"visibility","visible":false}`), &msg))
	require.NotNil(t, msg.Visible)
	assert.False(t, *msg.Visible)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"advance"}`), &msg))
	assert.Equal(t, TypeAdvance, msg.Type)
}

func TestSnapshotJSONShape(t *testing.T) {
	h := newHarness(t, Config{}, newGenerator(t, 8))
	a, _ := h.admit("alice")

	raw, err := json.Marshal(lastSnapshot(t, a))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "state", m["type"])
	assert.EqualValues(t, 1, m["version"])
	assert.EqualValues(t, -1, m["roundIndex"])
	assert.NotContains(t, m, "trialInfo")
	assert.Len(t, m["participants"], 1)
}
