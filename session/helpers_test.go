/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/pairlab/stimuli"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fakeConn records everything sent to one participant.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []any
	closed bool
}

func (c *fakeConn) Send(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.msgs...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

func messagesOf[T any](c *fakeConn) []T {
	var out []T
	for _, m := range c.messages() {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func lastSnapshot(t *testing.T, c *fakeConn) Snapshot {
	t.Helper()
	snaps := messagesOf[Snapshot](c)
	require.NotEmpty(t, snaps, "no snapshot received")
	return snaps[len(snaps)-1]
}

// manualScheduler holds timers until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	s       *manualScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{s: s, d: d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTask
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// runPending fires every live timer and returns how many fired.
func (s *manualScheduler) runPending() int {
	due := s.pending()
	s.mu.Lock()
	for _, t := range due {
		t.fired = true
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

type failingGenerator struct{ rounds int }

func (g failingGenerator) Generate() ([]stimuli.Trial, []stimuli.ContextType, error) {
	return nil, nil, &stimuli.UnsatisfiableError{Stage: "sequence", Attempts: 1}
}

func (g failingGenerator) NumRounds() int { return g.rounds }

type harness struct {
	t     *testing.T
	reg   *Registry
	sched *manualScheduler
	logs  *test.Hook
	ctx   context.Context
}

func newGenerator(t *testing.T, rounds int) *stimuli.Generator {
	t.Helper()
	catalog, err := stimuli.DefaultCatalog()
	require.NoError(t, err)
	gen, err := stimuli.NewGenerator(catalog, stimuli.Options{
		NumRounds:       rounds,
		OcclusionBudget: stimuli.DefaultOcclusionBudget,
	}, rand.New(rand.NewPCG(3, 5)))
	require.NoError(t, err)
	return gen
}

func newHarness(t *testing.T, cfg Config, gen TrialGenerator, opts ...Option) *harness {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var n int
	sched := &manualScheduler{}
	reg := NewRegistry(cfg, gen, append([]Option{
		WithLogger(logger),
		WithScheduler(sched),
		WithIDs(func() string { n++; return fmt.Sprintf("room-%d", n) }),
	}, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- reg.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})

	return &harness{t: t, reg: reg, sched: sched, logs: hook, ctx: context.Background()}
}

func (h *harness) admit(id string) (*fakeConn, RoomHandle) {
	h.t.Helper()
	c := &fakeConn{}
	handle, err := h.reg.Admit(h.ctx, id, c)
	require.NoError(h.t, err)
	return c, handle
}

// flush fires live timers, then waits until the registry has run
// everything they queued.
func (h *harness) flush() int {
	h.t.Helper()
	n := h.sched.runPending()
	_, err := h.reg.Stats(h.ctx)
	require.NoError(h.t, err)
	return n
}

func (h *harness) respondAll(roomID string, ids ...string) {
	h.t.Helper()
	for _, id := range ids {
		err := h.reg.Respond(h.ctx, roomID, id)
		if !errors.Is(err, ErrNotInRoom) {
			require.NoError(h.t, err)
		}
	}
}
