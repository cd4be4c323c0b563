package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(url string) (*App, *Queue) {
	q := NewQueue(20, time.Minute)
	return NewApp(New(url), NewMemorySession(), q), q
}

func TestAppLoginStoresSession(t *testing.T) {
	s := newTestServer(t)
	a, q := newApp(s.url)
	ctx := context.Background()

	require.True(t, a.Register(ctx, "alice", "secret"))
	a.Logout()
	assert.False(t, a.LoggedIn())

	assert.False(t, a.Login(ctx, "alice", "wrong"))
	require.Len(t, q.Active(), 1)
	n := q.Active()[0]
	assert.Equal(t, "Login failed", n.Title)
	assert.Equal(t, SeverityError, n.Severity)
	assert.NotEmpty(t, n.Body)

	require.True(t, a.Login(ctx, "alice", "secret"))
	id, _ := a.Session.Get(KeySessionID)
	assert.Equal(t, "alice", id)
	me := a.Me(ctx)
	require.NotNil(t, me)
	assert.Equal(t, "alice", me.Username)
}

func TestAppJoinThenActive(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	owner, _ := newApp(s.url)
	guest, _ := newApp(s.url)
	require.True(t, owner.Register(ctx, "owner", "secret"))
	require.True(t, guest.Register(ctx, "guest", "secret"))

	room := owner.CreateRoom(ctx)
	require.NotNil(t, room)
	cached, ok := owner.ActiveRoomID()
	require.True(t, ok)
	assert.Equal(t, room.ID, cached)

	require.NotNil(t, guest.JoinRoom(ctx, room.ID, ""))
	cached, ok = guest.ActiveRoomID()
	require.True(t, ok)
	assert.Equal(t, room.ID, cached)
	active := guest.ActiveRoom(ctx)
	require.NotNil(t, active)
	assert.Equal(t, room.ID, active.ID)

	require.True(t, guest.LeaveRoom(ctx, room.ID))
	_, ok = guest.ActiveRoomID()
	assert.False(t, ok)
}

func TestAppLeaveClearsCacheOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"internal server error"}`))
	}))
	defer srv.Close()

	a, q := newApp(srv.URL)
	id := uuid.New()
	require.NoError(t, a.Session.Set(KeyActiveRoomID, id.String()))

	assert.False(t, a.LeaveRoom(context.Background(), id))
	_, ok := a.ActiveRoomID()
	assert.False(t, ok)
	require.Len(t, q.Active(), 1)
	assert.Equal(t, "internal server error", q.Active()[0].Body)
}

func TestAppSafeDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found"}`))
	}))
	defer srv.Close()

	a, q := newApp(srv.URL)
	ctx := context.Background()

	rooms := a.Rooms(ctx, types.RoomFilter{})
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)
	assert.Empty(t, a.Leaderboard(ctx, types.CategoryWins))
	assert.Empty(t, a.Rules(ctx, uuid.New()))
	assert.Nil(t, a.Room(ctx, uuid.New()))
	assert.Nil(t, a.JoinRoom(ctx, uuid.New(), ""))
	assert.Nil(t, a.Game(ctx))
	assert.Nil(t, a.PlayCard(ctx, types.Card{}))
	assert.Zero(t, a.Rank(ctx, "alice", types.CategoryGems))
	assert.False(t, a.ChangePassword(ctx, "a", "b"))

	_, ok := a.ActiveRoomID()
	assert.False(t, ok, "a failed join does not touch the session")
	assert.Len(t, q.Active(), 9)
	for _, n := range q.Active() {
		assert.Equal(t, SeverityError, n.Severity)
		assert.Equal(t, "not found", n.Body)
	}
}

func TestAppGameFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	owner, oq := newApp(s.url)
	guest, _ := newApp(s.url)
	require.True(t, owner.Register(ctx, "owner", "secret"))
	require.True(t, guest.Register(ctx, "guest", "secret"))

	room := owner.CreateRoom(ctx)
	require.NotNil(t, room)
	assert.Nil(t, owner.StartGame(ctx))
	assert.Len(t, oq.Active(), 1)

	require.NotNil(t, guest.JoinRoom(ctx, room.ID, ""))
	snapshot := owner.StartGame(ctx)
	require.NotNil(t, snapshot)
	assert.Len(t, snapshot.Game.Players, 2)

	ended := owner.EndGame(ctx)
	require.NotNil(t, ended)
	assert.Len(t, ended.Game.Losers, 2)
	assert.Nil(t, guest.Game(ctx))
}
