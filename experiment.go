/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Pairlab experiment transport
//
// Each participant opens a websocket to $prefix/experiment/ws and sends a
// join message. The registry seats them in the first room with a free seat;
// once both seats are taken the room generates its trial list and starts
// round 0. Every later frame is either JSON ({"type":"advance"}) or a legacy
// token string (advance, chatMessage.<text>, h.<visible>), and is routed to
// the participant's room. Closing the socket vacates the seat.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/pairlab/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const (
	participantCookieName = "pairlab_id"

	maxFrameSize = 4096
	sendBuffer   = 32
	writeWait    = 10 * time.Second
	removeWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one participant's websocket. It satisfies session.Conn.
type Client struct {
	conn          *websocket.Conn
	send          chan any
	done          chan struct{}
	once          sync.Once
	participantID string
	log           logrus.FieldLogger
}

func newClient(conn *websocket.Conn, participantID string) *Client {
	return &Client{
		conn:          conn,
		send:          make(chan any, sendBuffer),
		done:          make(chan struct{}),
		participantID: participantID,
		log:           logger.WithField("participant", participantID),
	}
}

// Send queues msg without blocking. A full buffer drops the message.
func (c *Client) Send(msg any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("GAMES: Send buffer full, dropping message")
		return false
	}
}

// Close stops the write pump. It flushes whatever is still queued, sends a
// close frame and closes the socket.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// decodeInbound accepts either a JSON object or a legacy token string.
func decodeInbound(data []byte) (session.Inbound, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var msg session.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			return session.Inbound{}, err
		}
		return msg, nil
	}

	if string(data) == session.TypeJoin {
		return session.Inbound{Type: session.TypeJoin}, nil
	}

	return session.ParseLegacy(string(data))
}

func (c *Client) readPump(ctx context.Context, cfg *Config, reg *session.Registry) {
	var roomID string
	log := c.log

	defer func() {
		if roomID != "" {
			rctx, cancel := context.WithTimeout(context.Background(), removeWait)
			err := reg.Remove(rctx, roomID, c.participantID)
			cancel()
			if err != nil && !errors.Is(err, session.ErrRoomNotFound) && !errors.Is(err, session.ErrClosed) {
				log.WithError(err).Debug("GAMES: Remove on disconnect failed")
			}
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	extend := func() {
		if cfg.playerTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))
		}
	}
	extend()
	c.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		extend()

		msg, err := decodeInbound(data)
		if err != nil {
			log.WithError(err).Debug("GAMES: Dropping undecodable frame")
			continue
		}

		if roomID == "" {
			if msg.Type != session.TypeJoin {
				c.Send(session.ErrorMessage{Type: session.TypeError, Message: "join before sending " + msg.Type})
				continue
			}

			handle, err := reg.Admit(ctx, c.participantID, c)
			if err != nil {
				log.WithError(err).Info("GAMES: Admission refused")
				c.Send(session.ErrorMessage{Type: session.TypeError, Message: err.Error()})
				return
			}
			roomID = handle.RoomID
			log = log.WithField("room", roomID)
			continue
		}

		if err := reg.Dispatch(ctx, roomID, c.participantID, msg); err != nil {
			if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
				return
			}
			log.WithError(err).Debug("GAMES: Message not applied")
		}
	}
}

func (c *Client) writePump(cfg *Config) {
	defer c.conn.Close()

	var ping <-chan time.Time
	if cfg.playerTimeout > 0 {
		ticker := time.NewTicker(cfg.playerTimeout / 2)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-c.done:
			if !c.flush() {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.Close()
				return
			}
		case <-ping:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// flush writes every queued message without waiting for more.
func (c *Client) flush() bool {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return false
			}
		default:
			return true
		}
	}
}

func participantFromCookie(r *http.Request) string {
	if c, err := r.Cookie(participantCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

func getOrSetParticipantID(w http.ResponseWriter, r *http.Request) string {
	if id := participantFromCookie(r); id != "" {
		return id
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     participantCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// serveExperimentWS upgrades the connection and runs the client until it
// disconnects. Clients without a cookie get a one-off participant ID.
func serveExperimentWS(cfg *Config, reg *session.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		participantID := participantFromCookie(r)
		if participantID == "" {
			participantID = uuid.NewString()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Debug("SERVE: Websocket upgrade failed")
			return
		}

		logf(cfg, "SERVE: Websocket opened for %s from %s", participantID, realIP(r))

		client := newClient(conn, participantID)
		go client.writePump(cfg)
		client.readPump(r.Context(), cfg, reg)

		logf(cfg, "SERVE: Websocket closed for %s", participantID)
	}
}

type statusResponse struct {
	Version string        `json:"version"`
	Seed    uint64        `json:"seed"`
	Rounds  int           `json:"rounds"`
	Stats   session.Stats `json:"stats"`
}

func serveStatus(cfg *Config, reg *session.Registry, seed uint64, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		stats, err := reg.Stats(r.Context())
		if err != nil {
			http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
			return
		}

		data, err := json.Marshal(statusResponse{
			Version: releaseVersion,
			Seed:    seed,
			Rounds:  cfg.rounds,
			Stats:   stats,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		writeBody(cfg, w, r, errs, "Status", data, startTime)
	}
}

// serveQR renders a PNG QR code pointing at the experiment page, for
// recruiting a second participant in person.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// registerExperiment sets up routes so that:
//   - $path         → participant client
//   - $path/ws      → websocket
//   - $path/status  → registry stats as JSON
//   - $path/qr      → PNG QR code for $path
func registerExperiment(cfg *Config, path string, mux *httprouter.Router, reg *session.Registry, seed uint64, errs chan<- error) {
	mux.GET(cfg.prefix+path, serveExperimentPage(cfg, errs))
	mux.GET(cfg.prefix+path+"/ws", serveExperimentWS(cfg, reg))
	mux.GET(cfg.prefix+path+"/status", serveStatus(cfg, reg, seed, errs))
	mux.GET(cfg.prefix+path+"/qr", serveQR(cfg))
}
