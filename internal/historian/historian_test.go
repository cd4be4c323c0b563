package historian

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mu        sync.Mutex
	actions   []database.GameAction
	abandoned []uuid.UUID
}

func (m *mockSink) InsertGameActions(_ context.Context, actions []database.GameAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, actions...)
	return nil
}

func (m *mockSink) MarkGameAbandoned(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandoned = append(m.abandoned, id)
	return true, nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func push(t *testing.T, rdb *redis.Client, ev game.GameEvent) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, rdb.RPush(context.Background(), "mau_actions", data).Err())
}

func TestHistorianFlushesQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sink := &mockSink{}
	svc := New(rdb, sink, Options{BatchSize: 2, FlushDelay: time.Second}, quietLogger())

	gameID, roomID := uuid.New(), uuid.New()
	push(t, rdb, game.GameEvent{GameID: gameID, RoomID: roomID, Index: 1, Type: game.EventGameStart, Actor: "owner"})
	push(t, rdb, game.GameEvent{GameID: gameID, RoomID: roomID, Index: 2, Type: game.EventPlayerTake, Actor: "p1",
		Payload: map[string]interface{}{"cards": 2}})
	push(t, rdb, game.GameEvent{GameID: gameID, RoomID: roomID, Index: 3, Type: game.EventNextTurn})
	mr.Lpush("mau_actions", "not json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.count() == 3 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.actions[0].Index)
	assert.Equal(t, roomID, sink.actions[0].RoomID)
	assert.Equal(t, "player_take", sink.actions[1].Type)
	assert.JSONEq(t, `{"cards":2}`, string(sink.actions[1].Payload))
	assert.Nil(t, sink.actions[2].Payload)
}

func TestHistorianMarksInactiveGames(t *testing.T) {
	sink := &mockSink{}
	svc := New(nil, sink, Options{Inactivity: time.Minute}, quietLogger())
	base := time.Now()
	svc.now = func() time.Time { return base }

	quiet, finished := uuid.New(), uuid.New()
	ctx := context.Background()
	svc.handle(ctx, `{"game_id":"`+quiet.String()+`","index":1,"type":"game_start"}`)
	svc.handle(ctx, `{"game_id":"`+finished.String()+`","index":1,"type":"game_start"}`)
	svc.handle(ctx, `{"game_id":"`+finished.String()+`","index":2,"type":"game_end"}`)

	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	svc.markInactive(ctx)

	assert.Equal(t, []uuid.UUID{quiet}, sink.abandoned)
}
