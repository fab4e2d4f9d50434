package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"wordguess/internal/db"
	"wordguess/internal/domain"
	"wordguess/internal/repository"
)

// peer reads frames on one goroutine so ReadMessage is never called
// concurrently.
type peer struct {
	name string
	conn *websocket.Conn
	in   chan map[string]any
}

func dial(name, url string) *peer {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", name, err)
	}
	p := &peer{name: name, conn: conn, in: make(chan map[string]any, 64)}
	go func() {
		defer close(p.in)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var obj map[string]any
			if json.Unmarshal(msg, &obj) == nil {
				p.in <- obj
			}
		}
	}()
	return p
}

func (p *peer) send(msg map[string]any) {
	if err := p.conn.WriteJSON(msg); err != nil {
		log.Fatalf("write %s: %v", p.name, err)
	}
}

// expect drains frames until one of type t arrives.
func (p *peer) expect(t string) map[string]any {
	timeout := time.After(3 * time.Second)
	for {
		select {
		case m, ok := <-p.in:
			if !ok {
				log.Fatalf("%s: connection closed waiting for %s", p.name, t)
			}
			if m["type"] == "error" {
				log.Fatalf("%s: server error waiting for %s: %v", p.name, t, m["message"])
			}
			if m["type"] == t {
				return m
			}
		case <-timeout:
			log.Fatalf("%s: timed out waiting for %s", p.name, t)
		}
	}
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	cfg := &domain.WordBankConfig{
		Name:     "smoke",
		GridSize: 4,
		Words:    []string{"apple", "banana", "cherry", "grape", "lemon", "mango", "olive", "peach", "pear", "plum", "kiwi", "fig"},
	}
	if err := repository.NewConfigRepository(pool).Create(ctx, cfg); err != nil {
		log.Fatalf("create config: %v", err)
	}

	body, _ := json.Marshal(map[string]any{"configId": cfg.ID})
	res, err := http.Post("http://"+base+"/api/v1/games", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("create game: %v", err)
	}
	var created struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(res.Body).Decode(&created)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated || created.Code == "" {
		log.Fatalf("create game: status %d", res.StatusCode)
	}
	log.Printf("game %s created", created.Code)

	wsURL := fmt.Sprintf("ws://%s/ws", base)
	a := dial("A", wsURL)
	defer a.conn.Close()
	b := dial("B", wsURL)
	defer b.conn.Close()

	a.send(map[string]any{"type": "join_game", "gameCode": created.Code, "playerName": "Alice"})
	a.expect("game_state")
	b.send(map[string]any{"type": "join_game", "gameCode": created.Code, "playerName": "Bob"})
	b.expect("game_state")
	a.expect("player_joined")

	a.send(map[string]any{"type": "select_secret_word", "cardIndex": 0})
	b.send(map[string]any{"type": "select_secret_word", "cardIndex": 2})
	a.expect("word_selected")
	a.expect("word_selected")
	stateB := b.expect("game_state")
	for stateB["phase"] != "playing" {
		stateB = b.expect("game_state")
	}
	board := stateB["board"].([]any)
	wordA := board[0].(map[string]any)["word"].(string)
	wordB := board[2].(map[string]any)["word"].(string)

	a.send(map[string]any{"type": "ask_question", "question": "does it start with a vowel?"})
	b.expect("question_asked")
	b.send(map[string]any{"type": "answer_question", "answer": false})
	a.expect("question_answered")

	b.send(map[string]any{"type": "make_guess", "word": board[1].(map[string]any)["word"]})
	log.Printf("B guessed wrong: %v", a.expect("guess_made"))
	a.send(map[string]any{"type": "make_guess", "word": wordB})
	over := b.expect("game_over")
	log.Printf("game over: %v (secret words %s/%s)", over, wordA, wordB)

	log.Println("smoke test finished")
}
