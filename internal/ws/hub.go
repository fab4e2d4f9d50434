package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wordguess/internal/domain"
	"wordguess/internal/game"
	"wordguess/internal/logger"
)

const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 6
	maxCodeAttempts = 100
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique game code")
)

// ConfigStore resolves a word-bank configuration by id.
type ConfigStore interface {
	GetConfig(ctx context.Context, id string) (*domain.WordBankConfig, error)
}

// ResultArchive stores finished games.
type ResultArchive interface {
	SaveResult(ctx context.Context, r *domain.GameResult) error
}

type HubConfig struct {
	IdleTimeout       time.Duration
	GracePeriod       time.Duration
	HeartbeatInterval time.Duration
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		IdleTimeout:       60 * time.Minute,
		GracePeriod:       2 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
	}
}

// CreatedGame is returned to whoever created a room.
type CreatedGame struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Option func(*Hub)

// WithRand sets the randomness used for boards and random word assignment.
func WithRand(r game.Rand) Option {
	return func(h *Hub) { h.rnd = r }
}

// WithCodeGenerator replaces the random game code generator.
func WithCodeGenerator(gen func() string) Option {
	return func(h *Hub) { h.newCode = gen }
}

// Hub owns every live room, keyed by game code, and the set of open
// connections used by the heartbeat.
type Hub struct {
	cfg     HubConfig
	configs ConfigStore
	archive ResultArchive
	rnd     game.Rand
	newCode func() string

	mu      sync.RWMutex
	rooms   map[string]*Room
	clients map[*Client]struct{}

	stop     chan struct{}
	stopOnce sync.Once

	// archiving tracks result writes still in flight.
	archiving sync.WaitGroup
}

func NewHub(cfg HubConfig, configs ConfigStore, archive ResultArchive, opts ...Option) *Hub {
	def := DefaultHubConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = def.GracePeriod
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}

	h := &Hub{
		cfg:     cfg,
		configs: configs,
		archive: archive,
		rnd:     game.CryptoRand{},
		rooms:   make(map[string]*Room),
		clients: make(map[*Client]struct{}),
		stop:    make(chan struct{}),
	}
	h.newCode = func() string { return randomCode(h.rnd) }
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func randomCode(rnd game.Rand) string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rnd.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode upper-cases and trims a user-entered game code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateGame builds a session from the stored configuration and starts its
// room.
func (h *Hub) CreateGame(ctx context.Context, configID string, modes game.Modes) (CreatedGame, error) {
	cfg, err := h.configs.GetConfig(ctx, configID)
	if err != nil {
		return CreatedGame{}, fmt.Errorf("load config %q: %w", configID, err)
	}
	session, err := game.NewSession("", cfg.ID, cfg.GridSize, cfg.Words, modes, h.rnd)
	if err != nil {
		return CreatedGame{}, fmt.Errorf("config %q: %w", configID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.stop:
		return CreatedGame{}, errors.New("hub is shutting down")
	default:
	}

	code, err := h.allocateCode()
	if err != nil {
		logger.Error("game code allocation failed", "rooms", len(h.rooms), "error", err)
		return CreatedGame{}, err
	}
	session.Code = code

	room := newRoom(h, session)
	h.rooms[code] = room
	RoomsActive.Inc()
	go room.run()

	logger.Info("game created", "room", code, "config", cfg.ID, "grid", len(session.Board))
	return CreatedGame{Code: code, ExpiresAt: room.createdExpiry}, nil
}

// allocateCode must be called with h.mu held.
func (h *Hub) allocateCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := h.newCode()
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (h *Hub) Room(code string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[NormalizeCode(code)]
	return r, ok
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Summary returns the public description of a live game.
func (h *Hub) Summary(ctx context.Context, code string) (game.Summary, error) {
	room, ok := h.Room(code)
	if !ok {
		return game.Summary{}, ErrGameNotFound
	}
	return room.summary(ctx)
}

// Join admits c into the room named by m.GameCode and returns its routing
// state.
func (h *Hub) Join(c *Client, m *JoinGame) (*Room, string, int, error) {
	room, ok := h.Room(m.GameCode)
	if !ok {
		return nil, "", -1, ErrGameNotFound
	}
	playerID, seat, err := room.join(c, m)
	if err != nil {
		return nil, "", -1, err
	}
	return room, playerID, seat, nil
}

func (h *Hub) removeRoom(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.rooms[r.Code]; ok && cur == r {
		delete(h.rooms, r.Code)
		RoomsActive.Dec()
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	ConnectionsActive.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		ConnectionsActive.Dec()
	}
}

// StartHeartbeat pings every open connection each interval until ctx is
// cancelled or the hub shuts down.
func (h *Hub) StartHeartbeat(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(h.cfg.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.pingClients()
			case <-ctx.Done():
				return
			case <-h.stop:
				return
			}
		}
	}()
}

// pingClients drops connections that missed the previous ping and pings the
// rest.
func (h *Hub) pingClients() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.ping() {
			c.log.Info("heartbeat missed, closing connection")
			c.terminate()
		}
	}
}

// Shutdown stops every room and closes every connection. It waits for the
// rooms and pending result writes to finish or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })

	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		r.post(shutdownEvent{})
	}
	for _, r := range rooms {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, c := range clients {
		c.finish()
	}

	archived := make(chan struct{})
	go func() {
		h.archiving.Wait()
		close(archived)
	}()
	select {
	case <-archived:
	case <-ctx.Done():
		return ctx.Err()
	}
	logger.Info("hub stopped", "rooms", len(rooms), "connections", len(clients))
	return nil
}
