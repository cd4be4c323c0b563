package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addUser(t *testing.T, m *Memory, username string, gems int) *models.User {
	t.Helper()
	u := &models.User{Username: username, Name: username, Gems: gems}
	require.NoError(t, m.CreateUser(context.Background(), u))
	return u
}

func usernames(users []models.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

func TestLeaderboardOrderAndStableTies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	addUser(t, m, "alice", 100)
	addUser(t, m, "bob", 300)
	addUser(t, m, "carol", 100)
	addUser(t, m, "dave", 200)
	addUser(t, m, "erin", 100)

	users, err := m.Leaderboard(ctx, types.CategoryGems, LeaderboardLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "dave", "alice", "carol", "erin"}, usernames(users))

	top, err := m.Leaderboard(ctx, types.CategoryGems, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "dave"}, usernames(top))

	_, err = m.Leaderboard(ctx, types.Category("level"), 10)
	assert.Error(t, err)
}

func TestLeaderboardRankMatchesIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i, name := range []string{"u1", "u2", "u3", "u4"} {
		addUser(t, m, name, 100+(i%2)*50)
	}

	for _, c := range types.Categories {
		users, err := m.Leaderboard(ctx, c, LeaderboardLimit)
		require.NoError(t, err)
		for i, u := range users {
			rank, err := m.LeaderboardRank(ctx, u.Username, c)
			require.NoError(t, err)
			assert.Equal(t, i+1, rank, "rank of %s in %s", u.Username, c)
		}
	}

	_, err := m.LeaderboardRank(ctx, "nobody", types.CategoryGems)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserConflict(t *testing.T) {
	m := NewMemory()
	addUser(t, m, "alice", 100)
	err := m.CreateUser(context.Background(), &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRoomMembershipAndActive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := addUser(t, m, "owner", 100)
	guest := addUser(t, m, "guest", 100)

	room := models.NewRoom(owner)
	require.NoError(t, m.CreateRoom(ctx, room))

	active, err := m.ActiveRoomForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, active.ID)

	_, err = m.ActiveRoomForUser(ctx, guest.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.AddRoomPlayer(ctx, room.ID, guest.ID))
	assert.ErrorIs(t, m.AddRoomPlayer(ctx, room.ID, guest.ID), ErrConflict)

	got, err := m.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "guest"}, usernames(got.Players))
	assert.Equal(t, "owner", got.Owner.Username)

	require.NoError(t, m.RemoveRoomPlayer(ctx, room.ID, guest.ID))
	assert.ErrorIs(t, m.RemoveRoomPlayer(ctx, room.ID, guest.ID), ErrNotFound)

	got.Status = types.RoomEnded
	require.NoError(t, m.UpdateRoom(ctx, got))
	_, err = m.ActiveRoomForUser(ctx, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRoomsOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Now().UTC()

	var ids []uuid.UUID
	for i, gems := range []int{30, 10, 20} {
		u := addUser(t, m, string(rune('a'+i)), 100)
		r := models.NewRoom(u)
		r.CreateTime = base.Add(time.Duration(i) * time.Minute)
		r.Gems = gems
		require.NoError(t, m.CreateRoom(ctx, r))
		ids = append(ids, r.ID)
	}

	hidden := models.NewRoom(addUser(t, m, "p", 100))
	hidden.Private = true
	require.NoError(t, m.CreateRoom(ctx, hidden))

	roomIDs := func(rooms []models.Room) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, r.ID)
		}
		return out
	}

	rooms, err := m.ListRooms(ctx, types.RoomFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, roomIDs(rooms))

	rooms, err = m.ListRooms(ctx, types.RoomFilter{Invert: true})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[0], ids[1], ids[2]}, roomIDs(rooms))

	rooms, err = m.ListRooms(ctx, types.RoomFilter{OrderBy: types.OrderGems})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[0], ids[2], ids[1]}, roomIDs(rooms))

	_, err = m.ListRooms(ctx, types.RoomFilter{OrderBy: "size"})
	assert.Error(t, err)

	random, err := m.RandomRoom(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, random.ID)
}

func TestSaveGameBumpsStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := addUser(t, m, "a", 100)
	b := addUser(t, m, "b", 100)

	g := &models.Game{
		OwnerID: a.ID,
		Winners: []uuid.UUID{a.ID},
		Losers:  []uuid.UUID{b.ID},
		Cards:   map[uuid.UUID]int{a.ID: 7, b.ID: 3},
	}
	require.NoError(t, m.SaveGame(ctx, g))
	assert.Equal(t, 1, m.Games())
	assert.ErrorIs(t, m.SaveGame(ctx, g), ErrConflict, "a completed game is final")
	assert.Equal(t, 1, m.Games())

	ua, _ := m.GetUserByID(ctx, a.ID)
	ub, _ := m.GetUserByID(ctx, b.ID)
	assert.Equal(t, models.UserStats{Games: 1, Wins: 1, Cards: 7}, models.UserStats{Games: ua.PlayCount, Wins: ua.WinCount, Cards: ua.CardsCount})
	assert.Equal(t, models.UserStats{Games: 1, Wins: 0, Cards: 3}, models.UserStats{Games: ub.PlayCount, Wins: ub.WinCount, Cards: ub.CardsCount})

	rank, err := m.LeaderboardRank(ctx, "a", types.CategoryWins)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
}
