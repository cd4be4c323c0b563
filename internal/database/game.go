// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/mau/internal/models"
)

// SaveGame persists the outcome of a game and bumps the counters of every participant.
// A game the historian marked abandoned is overwritten as completed. Saving a completed
// game again fails with ErrConflict.
func (p *Postgres) SaveGame(ctx context.Context, g *models.Game) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	winners := make(map[uuid.UUID]bool, len(g.Winners))
	for _, id := range g.Winners {
		winners[id] = true
	}

	err := pgx.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, room_id, owner_id, status, start_time, end_time)
			VALUES ($1, $2, $3, 'completed', $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET owner_id = $3, status = 'completed', start_time = $4, end_time = $5
			WHERE games.status <> 'completed'
		`
		tag, e := tx.Exec(ctx, upsertGame, g.ID, g.RoomID, g.OwnerID, g.CreateTime, g.EndTime)
		if e != nil {
			return e
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("game %v already completed: %w", g.ID, ErrConflict)
		}

		for id, s := range statsFor(g) {
			q := `
				INSERT INTO game_results (game_id, user_id, did_win, cards)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, user_id)
				DO UPDATE SET did_win = $3, cards = $4
			`
			if _, e := tx.Exec(ctx, q, g.ID, id, winners[id], s.Cards); e != nil {
				return e
			}

			bump := `
				UPDATE users
				SET play_count = play_count + $1, win_count = win_count + $2, cards_count = cards_count + $3
				WHERE id = $4
			`
			if _, e := tx.Exec(ctx, bump, s.Games, s.Wins, s.Cards, id); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx save game or results: %w", mapErr(err))
	}
	return nil
}

// GameAction is a journaled action row written by the historian.
type GameAction struct {
	GameID  uuid.UUID
	RoomID  uuid.UUID
	Index   int
	Actor   string
	Type    string
	Payload json.RawMessage
}

// InsertGameActions writes a batch of journaled actions in one transaction. The game row
// is created on its first action so the journal can run ahead of SaveGame.
func (p *Postgres) InsertGameActions(ctx context.Context, actions []GameAction) error {
	if len(actions) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, room_id, status, start_time)
			VALUES ($1, $2, 'in_progress', NOW())
			ON CONFLICT (id) DO NOTHING
		`
		insertAction := `
			INSERT INTO game_actions (game_id, action_index, actor, action_type, action_payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (game_id, action_index) DO NOTHING
		`
		for _, a := range actions {
			if _, err := tx.Exec(ctx, upsertGame, a.GameID, a.RoomID); err != nil {
				return fmt.Errorf("upsert game %v: %w", a.GameID, err)
			}
			payload := a.Payload
			if len(payload) == 0 {
				payload = json.RawMessage(`{}`)
			}
			if _, err := tx.Exec(ctx, insertAction, a.GameID, a.Index, a.Actor, a.Type, payload); err != nil {
				return fmt.Errorf("insert action %d of game %v: %w", a.Index, a.GameID, err)
			}
		}
		return nil
	})
}

// MarkGameAbandoned flags a game that is still in progress as abandoned.
func (p *Postgres) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	q := `UPDATE games SET status = 'abandoned', end_time = NOW()
	      WHERE id = $1 AND status = 'in_progress'`
	tag, err := p.DB.Exec(ctx, q, gameID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
