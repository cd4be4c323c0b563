// internal/historian/historian.go pops journaled game events from a Redis queue and
// persists them to the database in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink is where flushed actions end up. *database.Postgres implements it.
type Sink interface {
	InsertGameActions(ctx context.Context, actions []database.GameAction) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Options tune batching and inactivity tracking.
type Options struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without events before it is marked abandoned.
	Inactivity    time.Duration
	CheckInterval time.Duration
}

// Service drains the journal queue.
type Service struct {
	rdb    *redis.Client
	sink   Sink
	opts   Options
	logger logrus.FieldLogger

	mu           sync.Mutex
	batch        []database.GameAction
	lastActivity map[uuid.UUID]time.Time
	now          func() time.Time
}

func New(rdb *redis.Client, sink Sink, opts Options, logger logrus.FieldLogger) *Service {
	if opts.Queue == "" {
		opts.Queue = "mau_actions"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = time.Second
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	return &Service{
		rdb:          rdb,
		sink:         sink,
		opts:         opts,
		logger:       logger,
		batch:        make([]database.GameAction, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
		now:          time.Now,
	}
}

// Run blocks until ctx is cancelled. Pending actions are flushed before it returns.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.logger.WithField("queue", s.opts.Queue).Info("historian started")
	s.readLoop(ctx)
	wg.Wait()

	s.flush(context.Background())
	s.logger.Info("historian stopped")
}

// readLoop pops events with BLPop. A timed out pop flushes whatever is batched.
func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := s.rdb.BLPop(ctx, s.opts.FlushDelay, s.opts.Queue).Result()
		if errors.Is(err, redis.Nil) {
			s.flush(ctx)
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				s.logger.WithError(err).Error("BLPop failed")
				time.Sleep(s.opts.FlushDelay)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		s.handle(ctx, res[1])
	}
}

func (s *Service) handle(ctx context.Context, payload string) {
	var ev game.GameEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.WithError(err).Warn("invalid game event")
		return
	}
	data, err := json.Marshal(ev.Payload)
	if err != nil || ev.Payload == nil {
		data = nil
	}

	s.mu.Lock()
	if ev.Type == game.EventGameEnd {
		delete(s.lastActivity, ev.GameID)
	} else {
		s.lastActivity[ev.GameID] = s.now()
	}
	s.batch = append(s.batch, database.GameAction{
		GameID:  ev.GameID,
		RoomID:  ev.RoomID,
		Index:   ev.Index,
		Actor:   ev.Actor,
		Type:    string(ev.Type),
		Payload: data,
	})
	full := len(s.batch) >= s.opts.BatchSize
	s.mu.Unlock()

	if full {
		s.flush(ctx)
	}
}

// flush writes the current batch in a single transaction. A failed batch is logged and dropped.
func (s *Service) flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.batch
	s.batch = make([]database.GameAction, 0, s.opts.BatchSize)
	s.mu.Unlock()

	if err := s.sink.InsertGameActions(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("actions", len(batch)).Error("failed to flush actions")
		return
	}
	s.logger.WithField("actions", len(batch)).Debug("flushed actions")
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.markInactive(ctx)
		}
	}
}

// markInactive marks every game that has been quiet for longer than the inactivity window.
func (s *Service) markInactive(ctx context.Context) {
	now := s.now()
	var stale []uuid.UUID
	s.mu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, id)
			delete(s.lastActivity, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		marked, err := s.sink.MarkGameAbandoned(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("game", id).Error("failed to mark game abandoned")
			continue
		}
		if marked {
			s.logger.WithField("game", id).Info("marked game abandoned due to inactivity")
		}
	}
}
