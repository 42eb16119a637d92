/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import "time"

// Timer is a scheduled task that may be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d elapses, on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Conn is the outbound half of a participant's connection. Send must not
// block; it reports false when the message was dropped.
type Conn interface {
	Send(msg any) bool
	Close()
}
