package game

import "time"

// Phase is the session-level state of a game.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseSelecting Phase = "selecting"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

const (
	MaxPlayers    = 2
	MinGridSize   = 2
	MaxNameLength = 32
	MaxTextLength = 200
)

// Modes are fixed at creation and change how the protocol behaves.
type Modes struct {
	IsLocalMode          bool `json:"isLocalMode"`
	SharedComputerMode   bool `json:"sharedComputerMode"`
	RandomSecretWords    bool `json:"randomSecretWords"`
	ShowOnlyLastQuestion bool `json:"showOnlyLastQuestion"`
}

type Card struct {
	Word  string `json:"word"`
	Index int    `json:"index"`
}

// Player is one seat. Seats are never removed, a dropped connection only
// flips Connected.
type Player struct {
	ID              string
	Name            string
	SecretWordIndex *int
	HasSelectedWord bool
	FlippedCards    map[int]bool
	Connected       bool

	// Synthetic marks the auto-seated opponent of a shared-computer game.
	Synthetic bool

	// Optional attribution from a verified identity token.
	StudentID string
	ClassID   string
}

type TurnState struct {
	CurrentTurn     int
	PendingQuestion *string
	AwaitingAnswer  bool
	Winner          *int
}

type QuestionRecord struct {
	AskerIndex int       `json:"askerIndex"`
	Question   string    `json:"question"`
	Answer     *bool     `json:"answer"`
	AskedAt    time.Time `json:"askedAt"`
}

type Session struct {
	Code     string
	ConfigID string
	Modes    Modes
	Phase    Phase
	Players  []*Player
	Board    []Card
	Turn     TurnState

	// Questions is the full log; views may trim it.
	Questions []QuestionRecord

	CreatedAt  time.Time
	ExpiresAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	// Now overrides the clock, tests only.
	Now func() time.Time
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PlayerByID returns the seat holding id, or -1.
func (s *Session) PlayerByID(id string) (*Player, int) {
	if id == "" {
		return nil, -1
	}
	for i, p := range s.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// SeatOf maps a player id to its seat index.
func (s *Session) SeatOf(playerID string) (int, error) {
	if _, seat := s.PlayerByID(playerID); seat >= 0 {
		return seat, nil
	}
	return -1, ErrUnknownPlayer
}

func (s *Session) Player(seat int) *Player {
	if seat < 0 || seat >= len(s.Players) {
		return nil
	}
	return s.Players[seat]
}

// ConnectedCount counts seats with a live connection.
func (s *Session) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// SecretWords lists each seat's secret word, "" where none is set.
func (s *Session) SecretWords() []string {
	words := make([]string, len(s.Players))
	for i, p := range s.Players {
		if p.SecretWordIndex != nil {
			words[i] = s.Board[*p.SecretWordIndex].Word
		}
	}
	return words
}

func (s *Session) IsFinished() bool {
	return s.Phase == PhaseFinished
}
