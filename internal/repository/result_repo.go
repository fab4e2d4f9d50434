package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"wordguess/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameResultRepository struct {
	db *pgxpool.Pool
}

func NewGameResultRepository(db *pgxpool.Pool) *GameResultRepository {
	return &GameResultRepository{db: db}
}

// SaveResult stores a finished game. Storing the same game twice is a no-op.
func (r *GameResultRepository) SaveResult(ctx context.Context, res *domain.GameResult) error {
	seatsJSON, err := json.Marshal(res.Seats)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO game_results
			(game_code, config_id, seats, student_ids, winner_index, secret_words, mode, questions, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (game_code, started_at) DO NOTHING
		 RETURNING id, created_at`,
		res.GameCode,
		res.ConfigID,
		seatsJSON,
		studentIDs(res.Seats),
		res.WinnerIndex,
		res.SecretWords,
		res.Mode,
		res.Questions,
		res.StartedAt,
		res.FinishedAt,
	).Scan(&res.ID, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func studentIDs(seats []domain.SeatResult) []string {
	ids := make([]string, 0, len(seats))
	for _, s := range seats {
		if s.StudentID != "" {
			ids = append(ids, s.StudentID)
		}
	}
	return ids
}

// GetByStudent returns the games a student played, newest first.
func (r *GameResultRepository) GetByStudent(ctx context.Context, studentID string, limit int) ([]*domain.GameResult, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, game_code, config_id, seats, winner_index, secret_words, mode,
				questions, started_at, finished_at, created_at
		 FROM game_results
		 WHERE $1 = ANY(student_ids)
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.GameResult
	for rows.Next() {
		var (
			res   domain.GameResult
			seats []byte
		)
		if err := rows.Scan(
			&res.ID,
			&res.GameCode,
			&res.ConfigID,
			&seats,
			&res.WinnerIndex,
			&res.SecretWords,
			&res.Mode,
			&res.Questions,
			&res.StartedAt,
			&res.FinishedAt,
			&res.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(seats, &res.Seats); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// StudentStats summarises a student's archived games.
type StudentStats struct {
	StudentID string `json:"studentId"`
	Games     int    `json:"games"`
	Wins      int    `json:"wins"`
}

// GetStudentStats counts games and wins since the given time.
func (r *GameResultRepository) GetStudentStats(ctx context.Context, studentID string, since time.Time) (*StudentStats, error) {
	stats := &StudentStats{StudentID: studentID}

	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE seats -> winner_index ->> 'studentId' = $1)
		 FROM game_results
		 WHERE $1 = ANY(student_ids) AND finished_at >= $2`,
		studentID, since,
	).Scan(&stats.Games, &stats.Wins)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
