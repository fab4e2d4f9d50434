package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JoinOutcome tells the dispatcher which notifications a join needs.
type JoinOutcome int

const (
	JoinedNew JoinOutcome = iota
	// JoinedAndFilled is a new join that took the last free seat.
	JoinedAndFilled
	Reconnected
)

// NewSession builds a session in the waiting phase with a freshly sampled
// board.
func NewSession(code, configID string, gridSize int, bank []string, modes Modes, rnd Rand) (*Session, error) {
	board, err := SelectWordsForGame(bank, gridSize, rnd)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		Code:      code,
		ConfigID:  configID,
		Modes:     modes,
		Phase:     PhaseWaiting,
		Players:   make([]*Player, 0, MaxPlayers),
		Board:     board,
		CreatedAt: now,
		ExpiresAt: now,
	}, nil
}

// AddPlayer seats a new player or reconnects an existing one. A known
// existingID is always treated as a reconnect and never changes seat order.
func AddPlayer(s *Session, name, existingID string, rnd Rand) (*Player, JoinOutcome, error) {
	if p, _ := s.PlayerByID(existingID); p != nil {
		p.Connected = true
		return p, Reconnected, nil
	}
	if len(s.Players) >= MaxPlayers {
		return nil, 0, ErrGameFull
	}
	if s.Phase == PhaseFinished {
		return nil, 0, ErrGameFinished
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return nil, 0, ErrNameTooLong
	}
	for _, p := range s.Players {
		if strings.EqualFold(p.Name, name) {
			return nil, 0, ErrNameTaken
		}
	}

	p := &Player{
		ID:           uuid.NewString(),
		Name:         name,
		FlippedCards: make(map[int]bool),
		Connected:    true,
	}
	s.Players = append(s.Players, p)

	if len(s.Players) < MaxPlayers {
		return p, JoinedNew, nil
	}

	if s.Modes.RandomSecretWords {
		assignRandomWords(s, rnd)
		startPlaying(s)
	} else {
		s.Phase = PhaseSelecting
	}
	return p, JoinedAndFilled, nil
}

func assignRandomWords(s *Session, rnd Rand) {
	if rnd == nil {
		rnd = CryptoRand{}
	}
	indexes := make([]int, len(s.Board))
	for i := range indexes {
		indexes[i] = i
	}
	shuffle(indexes, rnd)
	for seat, p := range s.Players {
		idx := indexes[seat]
		p.SecretWordIndex = &idx
		p.HasSelectedWord = true
	}
}

func startPlaying(s *Session) {
	s.Phase = PhasePlaying
	s.Turn = TurnState{CurrentTurn: 0}
	s.StartedAt = s.now()
}

// SelectSecretWord fixes seat's secret word. Once both seats have chosen the
// game starts with seat 0 to move.
func SelectSecretWord(s *Session, seat, cardIndex int) error {
	if s.Phase != PhaseSelecting {
		return ErrNotSelecting
	}
	p := s.Player(seat)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.HasSelectedWord {
		return ErrWordAlreadySelected
	}
	if !validCard(s, cardIndex) {
		return ErrInvalidCard
	}
	if other := s.Player(1 - seat); other != nil && other.SecretWordIndex != nil && *other.SecretWordIndex == cardIndex {
		return ErrWordTaken
	}

	idx := cardIndex
	p.SecretWordIndex = &idx
	p.HasSelectedWord = true

	for _, pl := range s.Players {
		if !pl.HasSelectedWord {
			return nil
		}
	}
	startPlaying(s)
	return nil
}

// FlipCard toggles a card on the player's own board and reports whether it
// is now flipped. Flips are private notes and never affect the outcome.
func FlipCard(s *Session, seat, cardIndex int) (bool, error) {
	p, err := playingSeat(s, seat)
	if err != nil {
		return false, err
	}
	if !validCard(s, cardIndex) {
		return false, ErrInvalidCard
	}
	if p.FlippedCards[cardIndex] {
		delete(p.FlippedCards, cardIndex)
		return false, nil
	}
	p.FlippedCards[cardIndex] = true
	return true, nil
}

// AskQuestion fills the single question slot. Local-mode games skip the
// turn check since questions are asked in person.
func AskQuestion(s *Session, seat int, text string) error {
	if _, err := playingSeat(s, seat); err != nil {
		return err
	}
	if !s.Modes.IsLocalMode && seat != s.Turn.CurrentTurn {
		return ErrNotYourTurn
	}
	if s.Turn.AwaitingAnswer {
		return ErrQuestionPending
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrQuestionRequired
	}
	if len([]rune(text)) > MaxTextLength {
		return ErrTextTooLong
	}

	s.Turn.PendingQuestion = &text
	s.Turn.AwaitingAnswer = true
	s.Questions = append(s.Questions, QuestionRecord{
		AskerIndex: seat,
		Question:   text,
		AskedAt:    s.now(),
	})
	return nil
}

// AnswerQuestion empties the question slot and hands the turn to the
// answering seat.
func AnswerQuestion(s *Session, seat int, answer bool) (QuestionRecord, error) {
	if _, err := playingSeat(s, seat); err != nil {
		return QuestionRecord{}, err
	}
	if !s.Turn.AwaitingAnswer {
		return QuestionRecord{}, ErrNoPendingQuestion
	}
	if !s.Modes.IsLocalMode && seat == s.Turn.CurrentTurn {
		return QuestionRecord{}, ErrCannotAnswerOwnQuestion
	}

	s.Turn.PendingQuestion = nil
	s.Turn.AwaitingAnswer = false
	s.Turn.CurrentTurn = seat

	last := &s.Questions[len(s.Questions)-1]
	a := answer
	last.Answer = &a
	return *last, nil
}

// MakeGuess compares word with the opponent's secret word. A correct guess
// ends the game, a wrong one passes the turn to the opponent.
func MakeGuess(s *Session, seat int, word string) (bool, error) {
	if _, err := playingSeat(s, seat); err != nil {
		return false, err
	}
	if !s.Modes.IsLocalMode && seat != s.Turn.CurrentTurn {
		return false, ErrNotYourTurn
	}
	if s.Turn.AwaitingAnswer {
		return false, ErrQuestionPending
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return false, ErrGuessRequired
	}
	opponent := s.Player(1 - seat)
	if opponent == nil || opponent.SecretWordIndex == nil {
		return false, ErrUnknownPlayer
	}

	if strings.EqualFold(word, s.Board[*opponent.SecretWordIndex].Word) {
		winner := seat
		s.Turn.Winner = &winner
		s.Phase = PhaseFinished
		s.FinishedAt = s.now()
		return true, nil
	}
	s.Turn.CurrentTurn = 1 - seat
	return false, nil
}

// EndTurn passes the turn without guessing.
func EndTurn(s *Session, seat int) error {
	if _, err := playingSeat(s, seat); err != nil {
		return err
	}
	if seat != s.Turn.CurrentTurn {
		return ErrNotYourTurn
	}
	if s.Turn.AwaitingAnswer {
		return ErrQuestionPending
	}
	s.Turn.CurrentTurn = 1 - s.Turn.CurrentTurn
	return nil
}

// SetConnected updates a seat's connection flag.
func SetConnected(s *Session, seat int, connected bool) {
	if p := s.Player(seat); p != nil {
		p.Connected = connected
	}
}

func playingSeat(s *Session, seat int) (*Player, error) {
	if s.Phase == PhaseFinished {
		return nil, ErrGameFinished
	}
	if s.Phase != PhasePlaying {
		return nil, ErrNotPlaying
	}
	p := s.Player(seat)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

func validCard(s *Session, idx int) bool {
	return idx >= 0 && idx < len(s.Board)
}
