package repository

import (
	"context"
	"errors"

	"wordguess/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConfigNotFound = errors.New("word bank configuration not found")

type ConfigRepository struct {
	db *pgxpool.Pool
}

func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) GetConfig(ctx context.Context, id string) (*domain.WordBankConfig, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, grid_size, words, class_id, created_at
		 FROM word_bank_configs
		 WHERE id = $1`,
		id,
	)

	var c domain.WordBankConfig
	if err := row.Scan(&c.ID, &c.Name, &c.GridSize, &c.Words, &c.ClassID, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create stores a configuration. An empty ID lets the database assign one.
func (r *ConfigRepository) Create(ctx context.Context, c *domain.WordBankConfig) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO word_bank_configs (id, name, grid_size, words, class_id)
		 VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5)
		 RETURNING id, created_at`,
		c.ID,
		c.Name,
		c.GridSize,
		c.Words,
		c.ClassID,
	).Scan(&c.ID, &c.CreatedAt)
}

// ListByClass returns the configurations visible to a class, newest first.
func (r *ConfigRepository) ListByClass(ctx context.Context, classID string, limit int) ([]*domain.WordBankConfig, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, grid_size, words, class_id, created_at
		 FROM word_bank_configs
		 WHERE class_id = $1 OR class_id IS NULL
		 ORDER BY created_at DESC
		 LIMIT $2`,
		classID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.WordBankConfig
	for rows.Next() {
		var c domain.WordBankConfig
		if err := rows.Scan(&c.ID, &c.Name, &c.GridSize, &c.Words, &c.ClassID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
