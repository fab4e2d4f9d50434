package game

import (
	"sort"
	"time"
)

// OpponentView is the public profile of the other seat.
type OpponentView struct {
	Index           int    `json:"index"`
	Name            string `json:"name"`
	Connected       bool   `json:"connected"`
	HasSelectedWord bool   `json:"hasSelectedWord"`
}

// SelfView is the recipient's own seat, secret word included.
type SelfView struct {
	ID              string `json:"id"`
	Index           int    `json:"index"`
	Name            string `json:"name"`
	Connected       bool   `json:"connected"`
	HasSelectedWord bool   `json:"hasSelectedWord"`
	SecretWordIndex *int   `json:"secretWordIndex"`
	SecretWord      string `json:"secretWord,omitempty"`
	FlippedCards    []int  `json:"flippedCards"`
}

// PlayerView is the full snapshot sent to one seat.
type PlayerView struct {
	GameCode string `json:"gameCode"`
	Phase    Phase  `json:"phase"`
	Modes
	Board           []Card           `json:"board"`
	PlayerIndex     int              `json:"playerIndex"`
	You             *SelfView        `json:"you"`
	Opponent        *OpponentView    `json:"opponent"`
	CurrentTurn     int              `json:"currentTurn"`
	PendingQuestion *string          `json:"pendingQuestion"`
	AwaitingAnswer  bool             `json:"awaitingAnswer"`
	WinnerIndex     *int             `json:"winnerIndex"`
	Questions       []QuestionRecord `json:"questions"`
	ExpiresAt       time.Time        `json:"expiresAt"`
}

// BuildView renders the session from seat's perspective. The opponent's
// secret word and flipped cards are never included.
func BuildView(s *Session, seat int) PlayerView {
	v := PlayerView{
		GameCode:        s.Code,
		Phase:           s.Phase,
		Modes:           s.Modes,
		Board:           s.Board,
		PlayerIndex:     seat,
		CurrentTurn:     s.Turn.CurrentTurn,
		PendingQuestion: s.Turn.PendingQuestion,
		AwaitingAnswer:  s.Turn.AwaitingAnswer,
		WinnerIndex:     s.Turn.Winner,
		Questions:       visibleQuestions(s),
		ExpiresAt:       s.ExpiresAt,
	}

	if p := s.Player(seat); p != nil {
		self := &SelfView{
			ID:              p.ID,
			Index:           seat,
			Name:            p.Name,
			Connected:       p.Connected,
			HasSelectedWord: p.HasSelectedWord,
			SecretWordIndex: p.SecretWordIndex,
			FlippedCards:    flipped(p),
		}
		if p.SecretWordIndex != nil {
			self.SecretWord = s.Board[*p.SecretWordIndex].Word
		}
		v.You = self
	}
	if o := s.Player(1 - seat); o != nil {
		v.Opponent = &OpponentView{
			Index:           1 - seat,
			Name:            o.Name,
			Connected:       o.Connected,
			HasSelectedWord: o.HasSelectedWord,
		}
	}
	return v
}

func visibleQuestions(s *Session) []QuestionRecord {
	if len(s.Questions) == 0 {
		return []QuestionRecord{}
	}
	if s.Modes.ShowOnlyLastQuestion {
		return []QuestionRecord{s.Questions[len(s.Questions)-1]}
	}
	out := make([]QuestionRecord, len(s.Questions))
	copy(out, s.Questions)
	return out
}

func flipped(p *Player) []int {
	out := make([]int, 0, len(p.FlippedCards))
	for idx := range p.FlippedCards {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// SeatSummary is the public, secret-free view of a seat.
type SeatSummary struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Summary is what the request/response API exposes for a game code.
type Summary struct {
	Code      string        `json:"code"`
	ConfigID  string        `json:"configId"`
	Phase     Phase         `json:"phase"`
	Modes     Modes         `json:"modes"`
	GridSize  int           `json:"gridSize"`
	Players   []SeatSummary `json:"players"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

func Summarize(s *Session) Summary {
	seats := make([]SeatSummary, len(s.Players))
	for i, p := range s.Players {
		seats[i] = SeatSummary{Name: p.Name, Connected: p.Connected}
	}
	return Summary{
		Code:      s.Code,
		ConfigID:  s.ConfigID,
		Phase:     s.Phase,
		Modes:     s.Modes,
		GridSize:  len(s.Board),
		Players:   seats,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
