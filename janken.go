// Janken Tournament
//
// Everyone in the room watches one shared screen per session: the roster is
// entered once, then the server plays rock-paper-scissors on behalf of every
// remaining participant until a single champion is left.
//
// Features:
// - WebSockets per game ID: /janken/:gameid and /janken/:gameid/ws
// - Human-readable game IDs (three-word petnames), with server-side collision check
// - One tournament.Controller per game, driven only from the hub goroutine
// - Countdown, reveal and result timers are marshalled onto the hub goroutine
// - Every state change is pushed to all connected browsers, localized per client
// - Per-client token bucket on incoming messages
// - Games auto-reaped after configurable idle timeout
// - In-browser QR button to share the current session, backed by go-qrcode

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/Seednode/janken/locale"
	"github.com/Seednode/janken/tournament"
)

const gamePath = "/janken"

// Messages coming from clients
type ClientMessage struct {
	Type  string   `json:"type"`            // "start_tournament", "start_round", "restart"
	Count int      `json:"count,omitempty"` // start_tournament
	Names []string `json:"names,omitempty"` // start_tournament
}

// SessionInfoMessage is sent immediately on connect so the client can render
// in its own language before the first state arrives.
type SessionInfoMessage struct {
	Type            string         `json:"type"` // "session_info"
	GameID          string         `json:"game_id"`
	Locale          *locale.Locale `json:"locale"`
	MinParticipants int            `json:"min_participants"`
	MaxParticipants int            `json:"max_participants"`
}

// StateMessage carries a full tournament snapshot after every transition.
type StateMessage struct {
	Type        string               `json:"type"` // "state"
	Event       tournament.EventKind `json:"event"`
	State       tournament.State     `json:"state"`
	OutcomeText string               `json:"outcome_text,omitempty"`
	HistoryText []string             `json:"history_text,omitempty"`
	Viewers     int                  `json:"viewers"`
}

// SimpleMessage is for notifications sent to a single client ("error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	locale   *locale.Locale
	limiter  *rate.Limiter
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	cfg     *Config
	metrics *Metrics

	clients map[*Client]bool
	game    *tournament.Controller
	state   tournament.State

	register chan *Client
	unreg    chan *Client
	commands chan command
	timers   chan func()
	done     chan struct{}
	stopOnce sync.Once

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

// hubScheduler runs controller timers on the hub goroutine.
type hubScheduler struct {
	h *Hub
}

func (s hubScheduler) AfterFunc(d time.Duration, fn func()) tournament.Timer {
	return time.AfterFunc(d, func() {
		select {
		case s.h.timers <- fn:
		case <-s.h.done:
		}
	})
}

func newHub(cfg *Config, gameID string, metrics *Metrics, src tournament.RandomSource) *Hub {
	now := time.Now()
	h := &Hub{
		id:         gameID,
		cfg:        cfg,
		metrics:    metrics,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		timers:     make(chan func()),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	h.game = tournament.NewController(
		hubScheduler{h: h},
		tournament.NewMoveGenerator(src),
		cfg.timing(),
		h.onUpdate,
	)
	h.state = h.game.State()

	return h
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			h.touch()
			h.clients[c] = true
			h.metrics.clients.Inc()

			h.sendTo(c, SessionInfoMessage{
				Type:            "session_info",
				GameID:          h.id,
				Locale:          c.locale,
				MinParticipants: tournament.MinParticipants,
				MaxParticipants: tournament.MaxParticipants,
			})
			h.broadcastState("")

		case c := <-h.unreg:
			h.touch()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.broadcastState("")
			}

		case cmd := <-h.commands:
			h.touch()
			h.handleCommand(cmd)

		case fn := <-h.timers:
			h.touch()
			fn()
		}
	}
}

// stop ends the hub goroutine; safe to call more than once.
func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) handleCommand(cmd command) {
	c := cmd.client
	msg := cmd.msg

	var err error
	switch msg.Type {
	case "start_tournament":
		roster := tournament.BuildRoster(msg.Count, msg.Names, c.locale.DefaultName)
		_, err = h.game.StartTournament(roster)
		if err == nil {
			logf(h.cfg, "GAMES: Tournament started in %s with %d participants", h.id, len(roster))
		}
	case "start_round":
		err = h.game.StartRound()
	case "restart":
		h.game.Restart()
		logf(h.cfg, "GAMES: Tournament restarted in %s", h.id)
	}

	if err != nil {
		logf(h.cfg, "GAMES: Rejected %q from %s in %s: %v", msg.Type, c.playerID, h.id, err)
		h.sendTo(c, SimpleMessage{
			Type:    "error",
			Message: err.Error(),
		})
	}
}

// onUpdate is the controller's observer; it always runs on the hub goroutine.
func (h *Hub) onUpdate(u tournament.Update) {
	h.state = u.State
	h.metrics.observe(u)

	switch u.Event {
	case tournament.EventResolved:
		if o := u.State.Round.Outcome; o != nil {
			logf(h.cfg, "GAMES: Round %d in %s resolved as %s, %d eliminated",
				u.State.Round.Number, h.id, o.Kind, len(o.Eliminated))
		}
	case tournament.EventFinished:
		if u.State.Winner != nil {
			logf(h.cfg, "GAMES: %q won the tournament in %s", u.State.Winner.Name, h.id)
		}
	}

	h.broadcastState(u.Event)
}

func (h *Hub) viewers() int {
	seen := make(map[string]bool, len(h.clients))
	for c := range h.clients {
		seen[c.playerID] = true
	}
	return len(seen)
}

func (h *Hub) stateFor(c *Client, event tournament.EventKind) StateMessage {
	msg := StateMessage{
		Type:    "state",
		Event:   event,
		State:   h.state,
		Viewers: h.viewers(),
	}

	if o := h.state.Round.Outcome; o != nil {
		msg.OutcomeText = c.locale.OutcomeText(*o)
	}

	for _, rec := range h.state.History {
		msg.HistoryText = append(msg.HistoryText, c.locale.OutcomeText(rec.Outcome))
	}

	return msg
}

func (h *Hub) broadcastState(event tournament.EventKind) {
	for c := range h.clients {
		h.sendTo(c, h.stateFor(c, event))
	}
}

// sendTo never blocks; a client whose buffer is full is dropped.
func (h *Hub) sendTo(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.clients.Dec()
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		h.drop(c)
	}
}

// enqueue hands msg to the hub unless it has been stopped.
func (h *Hub) enqueue(c *Client, msg ClientMessage) bool {
	select {
	case h.commands <- command{client: c, msg: msg}:
		return true
	case <-h.done:
		return false
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "janken_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu      sync.Mutex
	hubs    map[string]*Hub
	cfg     *Config
	catalog *locale.Catalog
	metrics *Metrics

	// newSource returns the move source for a new hub; nil uses the default.
	newSource func() tournament.RandomSource

	idleTimeout time.Duration
	quit        chan struct{}
	closeOnce   sync.Once
}

func newGameManager(cfg *Config, catalog *locale.Catalog, metrics *Metrics, newSource func() tournament.RandomSource) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		cfg:         cfg,
		catalog:     catalog,
		metrics:     metrics,
		newSource:   newSource,
		idleTimeout: cfg.sessionTimeout,
		quit:        make(chan struct{}),
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	var src tournament.RandomSource
	if gm.newSource != nil {
		src = gm.newSource()
	}

	hub := newHub(gm.cfg, gameID, gm.metrics, src)
	gm.hubs[gameID] = hub
	gm.metrics.sessions.Set(float64(len(gm.hubs)))
	go hub.run()

	return hub
}

// newGameID generates a petname game ID and ensures it doesn't collide with
// existing games.
func (gm *GameManager) newGameID() string {
	for {
		id := petname.Generate(3, "-")

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.quit:
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			hub.stop()
			logf(gm.cfg, "GAMES: Reaped idle game %s (age %s)", id, time.Since(hub.createdAt).Round(time.Second))
		}
	}
	gm.metrics.sessions.Set(float64(len(gm.hubs)))
}

// Close stops the reaper and every hub.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() {
		close(gm.quit)

		gm.mu.Lock()
		defer gm.mu.Unlock()

		for id, hub := range gm.hubs {
			delete(gm.hubs, id)
			hub.stop()
		}
		gm.metrics.sessions.Set(0)
	})
}

func validGameID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(gameID)

		// Carries the Set-Cookie from getOrSetPlayerID, if any.
		conn, err := upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			errorf(cfg, "GAMES: Websocket upgrade for %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
			locale:   gm.catalog.Match(r.Header.Get("Accept-Language")),
			limiter:  cfg.limiter(),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s joined %s from %s", playerID, gameID, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			h.metrics.dropped.Inc()
			continue
		}

		switch msg.Type {
		case "start_tournament", "start_round", "restart":
			if !h.enqueue(c, msg) {
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"))
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
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

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.NotFound(w, r)
			return
		}

		data, err := assets.ReadFile("assets/janken/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "missing client", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		if _, err := w.Write(data); err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /path by generating a new game ID (with
// server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerJankenGame sets up routes so that:
//   - $path                  → redirects to new game
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
//   - /assets/*filepath      → embedded client assets
func registerJankenGame(cfg *Config, path string, gm *GameManager, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+"/assets/*filepath", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))
}
