package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"wordguess/internal/domain"
	"wordguess/internal/game"

	"github.com/gorilla/websocket"
)

const waitTimeout = 2 * time.Second

// fakeConn is an in-memory websocket connection.
type fakeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once

	mu          sync.Mutex
	pings       int
	closeSent   bool
	pongHandler func(string) error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-f.in:
		return websocket.TextMessage, m, nil
	case <-f.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (f *fakeConn) WriteMessage(t int, data []byte) error {
	select {
	case <-f.closed:
		return websocket.ErrCloseSent
	default:
	}
	if t == websocket.CloseMessage {
		f.mu.Lock()
		f.closeSent = true
		f.mu.Unlock()
		return nil
	}
	f.out <- data
	return nil
}

func (f *fakeConn) WriteControl(t int, _ []byte, _ time.Time) error {
	if t == websocket.PingMessage {
		f.mu.Lock()
		f.pings++
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	f.pongHandler = h
	f.mu.Unlock()
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) pong() {
	f.mu.Lock()
	h := f.pongHandler
	f.mu.Unlock()
	if h != nil {
		_ = h("")
	}
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) sendJSON(t *testing.T, v map[string]any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	f.in <- raw
}

// expect skips frames until one of type typ arrives.
func (f *fakeConn) expect(t *testing.T, typ MessageType) map[string]any {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case raw := <-f.out:
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("bad frame %s: %v", raw, err)
			}
			if m["type"] == string(typ) {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

// expectError waits for an error frame and checks its message.
func (f *fakeConn) expectError(t *testing.T, want string) {
	t.Helper()
	m := f.expect(t, TypeError)
	if m["message"] != want {
		t.Fatalf("expected error %q, got %q", want, m["message"])
	}
}

// lockedRand makes a seeded generator safe for the hub's goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func testRand() game.Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(7, 11))}
}

type fakeConfigs map[string]*domain.WordBankConfig

var errNoConfig = fmt.Errorf("no such config")

func (f fakeConfigs) GetConfig(_ context.Context, id string) (*domain.WordBankConfig, error) {
	c, ok := f[id]
	if !ok {
		return nil, errNoConfig
	}
	return c, nil
}

type fakeArchive struct {
	saved chan *domain.GameResult
}

func (f *fakeArchive) SaveResult(_ context.Context, r *domain.GameResult) error {
	f.saved <- r
	return nil
}

func wordBank(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	return words
}

func testConfigs() fakeConfigs {
	return fakeConfigs{
		"animals": {ID: "animals", Name: "Animals", GridSize: 4, Words: wordBank(12)},
		"tiny":    {ID: "tiny", Name: "Tiny", GridSize: 6, Words: wordBank(3)},
	}
}

func newTestHub(t *testing.T, cfg HubConfig, opts ...Option) (*Hub, *fakeArchive) {
	t.Helper()
	archive := &fakeArchive{saved: make(chan *domain.GameResult, 4)}
	h := NewHub(cfg, testConfigs(), archive, append([]Option{WithRand(testRand())}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return h, archive
}

func createGame(t *testing.T, h *Hub, modes game.Modes) string {
	t.Helper()
	created, err := h.CreateGame(context.Background(), "animals", modes)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return created.Code
}

func connect(t *testing.T, h *Hub) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	c := NewClient(conn, h, nil)
	go c.Run()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// joinAs joins code and returns the first snapshot.
func joinAs(t *testing.T, conn *fakeConn, code, name string) map[string]any {
	t.Helper()
	conn.sendJSON(t, map[string]any{"type": "join_game", "gameCode": code, "playerName": name})
	return conn.expect(t, TypeGameState)
}

func boardWord(t *testing.T, state map[string]any, idx int) string {
	t.Helper()
	board, ok := state["board"].([]any)
	if !ok || idx >= len(board) {
		t.Fatalf("snapshot has no card %d: %v", idx, state["board"])
	}
	return board[idx].(map[string]any)["word"].(string)
}

func num(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
