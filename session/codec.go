/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The legacy wire format is a dot-separated token string, type.arg1.arg2.
// Dots inside a field travel as hyphens and are restored on decode, so a
// field survives the round trip as long as it holds no literal hyphen.

const (
	tokenSep    = "."
	tokenEscape = "-"

	legacyAdvance    = "advance"
	legacyChat       = "chatMessage"
	legacyVisibility = "h"
)

var ErrUnknownMessage = errors.New("unrecognized message type")

// EncodeToken joins a message type and its fields into one token string.
func EncodeToken(typ string, fields ...string) string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, typ)
	for _, f := range fields {
		parts = append(parts, strings.ReplaceAll(f, tokenSep, tokenEscape))
	}
	return strings.Join(parts, tokenSep)
}

// DecodeToken splits a token string into its type and unescaped fields.
func DecodeToken(s string) (string, []string) {
	parts := strings.Split(s, tokenSep)
	fields := parts[1:]
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, tokenEscape, tokenSep)
	}
	return parts[0], fields
}

// ParseLegacy maps a token string onto an Inbound message.
func ParseLegacy(s string) (Inbound, error) {
	typ, fields := DecodeToken(s)

	switch typ {
	case legacyAdvance:
		return Inbound{Type: TypeAdvance}, nil
	case legacyChat:
		if len(fields) < 1 {
			return Inbound{}, fmt.Errorf("%s: missing text", typ)
		}
		// An unescaped dot in chat text splits it; put it back together.
		return Inbound{Type: TypeChat, Text: strings.Join(fields, tokenSep)}, nil
	case legacyVisibility:
		if len(fields) < 1 {
			return Inbound{}, fmt.Errorf("%s: missing flag", typ)
		}
		visible, err := parseVisibility(fields[0])
		if err != nil {
			return Inbound{}, fmt.Errorf("%s: %w", typ, err)
		}
		return Inbound{Type: TypeVisibility, Visible: &visible}, nil
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownMessage, typ)
	}
}

func parseVisibility(s string) (bool, error) {
	switch s {
	case "visible":
		return true, nil
	case "hidden":
		return false, nil
	}
	return strconv.ParseBool(s)
}
