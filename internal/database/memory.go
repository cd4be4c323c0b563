package database

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)

type memRoom struct {
	room    models.Room
	members []uuid.UUID
}

// Memory is an in-process Store. It is used when no DATABASE_URL is configured and in tests.
type Memory struct {
	mu     sync.Mutex
	users  []*models.User
	byID   map[uuid.UUID]*models.User
	byName map[string]*models.User
	rooms  map[uuid.UUID]*memRoom
	games  map[uuid.UUID]models.Game
	rnd    *rand.Rand
}

func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[uuid.UUID]*models.User),
		byName: make(map[string]*models.User),
		rooms:  make(map[uuid.UUID]*memRoom),
		games:  make(map[uuid.UUID]models.Game),
		rnd:    rand.New(rand.NewSource(rand.Int63())),
	}
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[u.Username]; exists {
		return fmt.Errorf("failed to insert user: %w", ErrConflict)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	stored := *u
	m.users = append(m.users, &stored)
	m.byID[stored.ID] = &stored
	m.byName[stored.Username] = &stored
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = u.Name
	stored.AvatarURL = u.AvatarURL
	stored.Password = u.Password
	return nil
}

// ranked returns users in leaderboard order. Assumes lock is held.
func (m *Memory) ranked(category types.Category) ([]*models.User, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown leaderboard category %q", category)
	}
	users := make([]*models.User, len(m.users))
	copy(users, m.users)
	sort.SliceStable(users, func(i, j int) bool {
		return category.Metric(users[i].Data()) > category.Metric(users[j].Data())
	})
	return users, nil
}

func (m *Memory) Leaderboard(_ context.Context, category types.Category, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users, err := m.ranked(category)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *Memory) LeaderboardRank(_ context.Context, username string, category types.Category) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users, err := m.ranked(category)
	if err != nil {
		return 0, err
	}
	for i, u := range users {
		if u.Username == username {
			return i + 1, nil
		}
	}
	return 0, ErrNotFound
}

// view assembles a room with fresh member records. Assumes lock is held.
func (m *Memory) view(mr *memRoom) *models.Room {
	r := mr.room
	r.StatusUpdates = append([]string{}, mr.room.StatusUpdates...)
	r.Players = make([]models.User, 0, len(mr.members))
	for _, id := range mr.members {
		if u, ok := m.byID[id]; ok {
			r.Players = append(r.Players, *u)
		}
	}
	if owner, ok := m.byID[r.OwnerID]; ok {
		r.Owner = *owner
	}
	return &r
}

func (m *Memory) CreateRoom(_ context.Context, r *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[r.ID]; exists {
		return fmt.Errorf("failed to insert room: %w", ErrConflict)
	}
	if _, ok := m.byID[r.OwnerID]; !ok {
		return fmt.Errorf("failed to insert room: owner %w", ErrNotFound)
	}
	stored := *r
	stored.StatusUpdates = append([]string{}, r.StatusUpdates...)
	m.rooms[r.ID] = &memRoom{room: stored, members: []uuid.UUID{r.OwnerID}}
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.view(mr), nil
}

func (m *Memory) ListRooms(_ context.Context, filter types.RoomFilter) ([]models.Room, error) {
	if _, err := roomOrder(filter.OrderBy); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := []models.Room{}
	for _, mr := range m.rooms {
		if mr.room.Private || mr.room.Status == types.RoomEnded {
			continue
		}
		rooms = append(rooms, *m.view(mr))
	}

	key := func(r *models.Room) int64 {
		switch filter.OrderBy {
		case types.OrderGems:
			return int64(r.Gems)
		case types.OrderPlayers:
			return int64(len(r.Players))
		default:
			return r.CreateTime.UnixNano()
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		a, b := &rooms[i], &rooms[j]
		ka, kb := key(a), key(b)
		if ka == kb {
			ka, kb = a.CreateTime.UnixNano(), b.CreateTime.UnixNano()
		}
		if filter.Invert {
			return ka < kb
		}
		return ka > kb
	})
	return rooms, nil
}

func (m *Memory) RandomRoom(_ context.Context) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var idle []*memRoom
	for _, mr := range m.rooms {
		if !mr.room.Private && mr.room.Status == types.RoomIdle {
			idle = append(idle, mr)
		}
	}
	if len(idle) == 0 {
		return nil, ErrNotFound
	}
	return m.view(idle[m.rnd.Intn(len(idle))]), nil
}

func (m *Memory) ActiveRoomForUser(_ context.Context, userID uuid.UUID) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *memRoom
	for _, mr := range m.rooms {
		if mr.room.Status == types.RoomEnded {
			continue
		}
		for _, id := range mr.members {
			if id == userID && (found == nil || mr.room.CreateTime.After(found.room.CreateTime)) {
				found = mr
			}
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return m.view(found), nil
}

func (m *Memory) UpdateRoom(_ context.Context, r *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.rooms[r.ID]
	if !ok {
		return ErrNotFound
	}
	mr.room.Name = r.Name
	mr.room.Private = r.Private
	mr.room.Password = r.Password
	mr.room.OwnerID = r.OwnerID
	mr.room.MinPlayers = r.MinPlayers
	mr.room.MaxPlayers = r.MaxPlayers
	mr.room.Gems = r.Gems
	mr.room.Status = r.Status
	mr.room.StatusUpdates = append([]string{}, r.StatusUpdates...)
	return nil
}

func (m *Memory) AddRoomPlayer(_ context.Context, roomID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.byID[userID]; !ok {
		return ErrNotFound
	}
	for _, id := range mr.members {
		if id == userID {
			return ErrConflict
		}
	}
	mr.members = append(mr.members, userID)
	return nil
}

func (m *Memory) RemoveRoomPlayer(_ context.Context, roomID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	for i, id := range mr.members {
		if id == userID {
			mr.members = append(mr.members[:i], mr.members[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) SaveGame(_ context.Context, g *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if _, exists := m.games[g.ID]; exists {
		return fmt.Errorf("game %v already completed: %w", g.ID, ErrConflict)
	}
	for id, s := range statsFor(g) {
		u, ok := m.byID[id]
		if !ok {
			continue
		}
		u.PlayCount += s.Games
		u.WinCount += s.Wins
		u.CardsCount += s.Cards
	}
	m.games[g.ID] = *g
	return nil
}

// Games returns the number of stored game records.
func (m *Memory) Games() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

func (m *Memory) Close() {}
