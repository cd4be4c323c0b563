package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

const roomColumns = `r.id, r.name, r.create_time, r.private, r.room_password, r.owner_id,
	r.min_players, r.max_players, r.gems, r.status, r.status_updates`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	var status string
	err := row.Scan(
		&r.ID, &r.Name, &r.CreateTime, &r.Private, &r.Password, &r.OwnerID,
		&r.MinPlayers, &r.MaxPlayers, &r.Gems, &status, &r.StatusUpdates,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	r.Status = types.RoomStatus(status)
	return &r, nil
}

// loadMembers fills in Owner and Players, ordered by join time.
func (p *Postgres) loadMembers(ctx context.Context, r *models.Room) error {
	q := `SELECT u.id, u.username, u.name, u.avatar_url, u.password, u.gems,
	             u.play_count, u.win_count, u.cards_count, u.created_at
	      FROM room_players rp JOIN users u ON u.id = rp.user_id
	      WHERE rp.room_id = $1
	      ORDER BY rp.joined_at, u.seq`
	rows, err := p.DB.Query(ctx, q, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	r.Players = []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return err
		}
		r.Players = append(r.Players, *u)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	owner, err := p.GetUserByID(ctx, r.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load room owner: %w", err)
	}
	r.Owner = *owner
	return nil
}

func (p *Postgres) CreateRoom(ctx context.Context, r *models.Room) error {
	q := `INSERT INTO rooms (id, name, create_time, private, room_password, owner_id,
	                         min_players, max_players, gems, status, status_updates)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	err := pgx.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q,
			r.ID, r.Name, r.CreateTime, r.Private, r.Password, r.OwnerID,
			r.MinPlayers, r.MaxPlayers, r.Gems, string(r.Status), r.StatusUpdates,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO room_players (room_id, user_id) VALUES ($1, $2)`, r.ID, r.OwnerID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", mapErr(err))
	}
	return nil
}

func (p *Postgres) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	r, err := scanRoom(p.DB.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := p.loadMembers(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// roomOrder maps a listing order to its SQL expression.
func roomOrder(o types.RoomOrder) (string, error) {
	switch o {
	case "", types.OrderCreateTime:
		return "r.create_time", nil
	case types.OrderGems:
		return "r.gems", nil
	case types.OrderPlayers:
		return "(SELECT COUNT(*) FROM room_players rp WHERE rp.room_id = r.id)", nil
	}
	return "", fmt.Errorf("unknown room order %q", o)
}

func (p *Postgres) ListRooms(ctx context.Context, filter types.RoomFilter) ([]models.Room, error) {
	expr, err := roomOrder(filter.OrderBy)
	if err != nil {
		return nil, err
	}
	dir := "DESC"
	if filter.Invert {
		dir = "ASC"
	}
	q := `SELECT ` + roomColumns + ` FROM rooms r
	      WHERE r.private = FALSE AND r.status <> 'ended'
	      ORDER BY ` + expr + ` ` + dir + `, r.create_time ` + dir
	return p.queryRooms(ctx, q)
}

func (p *Postgres) queryRooms(ctx context.Context, q string, args ...any) ([]models.Room, error) {
	rows, err := p.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	rooms := []models.Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rooms = append(rooms, *r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// members are loaded after the cursor is released
	for i := range rooms {
		if err := p.loadMembers(ctx, &rooms[i]); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (p *Postgres) RandomRoom(ctx context.Context) (*models.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms r
	      WHERE r.private = FALSE AND r.status = 'idle'
	      ORDER BY random() LIMIT 1`
	return p.firstRoom(ctx, q)
}

func (p *Postgres) ActiveRoomForUser(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms r
	      JOIN room_players rp ON rp.room_id = r.id
	      WHERE rp.user_id = $1 AND r.status <> 'ended'
	      ORDER BY r.create_time DESC LIMIT 1`
	return p.firstRoom(ctx, q, userID)
}

func (p *Postgres) firstRoom(ctx context.Context, q string, args ...any) (*models.Room, error) {
	rooms, err := p.queryRooms(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrNotFound
	}
	return &rooms[0], nil
}

func (p *Postgres) UpdateRoom(ctx context.Context, r *models.Room) error {
	q := `UPDATE rooms SET name = $1, private = $2, room_password = $3, owner_id = $4,
	             min_players = $5, max_players = $6, gems = $7, status = $8, status_updates = $9
	      WHERE id = $10`
	return pgx.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q,
			r.Name, r.Private, r.Password, r.OwnerID,
			r.MinPlayers, r.MaxPlayers, r.Gems, string(r.Status), r.StatusUpdates, r.ID,
		)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (p *Postgres) AddRoomPlayer(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := p.DB.Exec(ctx, `INSERT INTO room_players (room_id, user_id) VALUES ($1, $2)`, roomID, userID)
	return mapErr(err)
}

func (p *Postgres) RemoveRoomPlayer(ctx context.Context, roomID, userID uuid.UUID) error {
	tag, err := p.DB.Exec(ctx, `DELETE FROM room_players WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
