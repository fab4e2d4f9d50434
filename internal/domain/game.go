package domain

import "time"

// WordBankConfig is a class-owned board configuration: the grid size and
// the words a board is drawn from.
type WordBankConfig struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	GridSize  int       `db:"grid_size" json:"gridSize"`
	Words     []string  `db:"words" json:"words"`
	ClassID   *string   `db:"class_id" json:"classId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SeatResult is one seat of an archived game.
type SeatResult struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	StudentID string `json:"studentId,omitempty"`
	ClassID   string `json:"classId,omitempty"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// GameResult is the outcome of a finished game, stored once per game.
type GameResult struct {
	ID          int64        `db:"id" json:"id"`
	GameCode    string       `db:"game_code" json:"gameCode"`
	ConfigID    string       `db:"config_id" json:"configId"`
	Seats       []SeatResult `db:"seats" json:"seats"`
	WinnerIndex int          `db:"winner_index" json:"winnerIndex"`
	SecretWords []string     `db:"secret_words" json:"secretWords"`
	Mode        GameMode     `db:"mode" json:"mode"`
	Questions   int          `db:"questions" json:"questions"`
	StartedAt   time.Time    `db:"started_at" json:"startedAt"`
	FinishedAt  time.Time    `db:"finished_at" json:"finishedAt"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// GameMode summarises the mode flags for reporting.
type GameMode string

const (
	GameModeOnline GameMode = "online"
	GameModeLocal  GameMode = "local"
	GameModeShared GameMode = "shared"
)

// Winner returns the winning seat, if it is in range.
func (r *GameResult) Winner() (SeatResult, bool) {
	if r.WinnerIndex < 0 || r.WinnerIndex >= len(r.Seats) {
		return SeatResult{}, false
	}
	return r.Seats[r.WinnerIndex], true
}

// ForStudent reports whether studentID played in this game and whether they won.
func (r *GameResult) ForStudent(studentID string) (played, won bool) {
	for _, s := range r.Seats {
		if s.StudentID != "" && s.StudentID == studentID {
			return true, s.Index == r.WinnerIndex
		}
	}
	return false, false
}
