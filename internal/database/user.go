package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

const userColumns = `id, username, name, avatar_url, password, gems, play_count, win_count, cards_count, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Name, &u.AvatarURL, &u.Password,
		&u.Gems, &u.PlayCount, &u.WinCount, &u.CardsCount, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// CreateUser inserts a user. The password must already be hashed.
func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	q := `INSERT INTO users (id, username, name, avatar_url, password, gems)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      RETURNING created_at`

	err := pgx.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			user.ID, user.Username, user.Name, user.AvatarURL, user.Password, user.Gems,
		).Scan(&user.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapErr(err))
	}
	return nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(p.DB.QueryRow(ctx, q, id))
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(p.DB.QueryRow(ctx, q, username))
}

func (p *Postgres) UpdateUser(ctx context.Context, u *models.User) error {
	q := `UPDATE users SET name = $1, avatar_url = $2, password = $3 WHERE id = $4`
	return pgx.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, u.Name, u.AvatarURL, u.Password, u.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// categoryColumn maps a leaderboard category to its users column.
func categoryColumn(c types.Category) (string, error) {
	switch c {
	case types.CategoryGems:
		return "gems", nil
	case types.CategoryGames:
		return "play_count", nil
	case types.CategoryWins:
		return "win_count", nil
	case types.CategoryCards:
		return "cards_count", nil
	}
	return "", fmt.Errorf("unknown leaderboard category %q", c)
}

func (p *Postgres) Leaderboard(ctx context.Context, category types.Category, limit int) ([]models.User, error) {
	col, err := categoryColumn(category)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + userColumns + ` FROM users ORDER BY ` + col + ` DESC, seq ASC LIMIT $1`
	rows, err := p.DB.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// LeaderboardRank counts the users ahead of the given one using the category index.
func (p *Postgres) LeaderboardRank(ctx context.Context, username string, category types.Category) (int, error) {
	col, err := categoryColumn(category)
	if err != nil {
		return 0, err
	}
	q := `
	SELECT COUNT(*) + 1
	FROM users o, users u
	WHERE u.username = $1
	  AND (o.` + col + ` > u.` + col + ` OR (o.` + col + ` = u.` + col + ` AND o.seq < u.seq))
	`
	var exists bool
	if err := p.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	var rank int
	if err := p.DB.QueryRow(ctx, q, username).Scan(&rank); err != nil {
		return 0, mapErr(err)
	}
	return rank, nil
}
