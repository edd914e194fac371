// Package memory is an in-process implementation of the repositories port. Writers are
// serialized and work on a private copy of the data which replaces the committed snapshot
// on success, so readers never block and never observe a half-applied transaction.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type state struct {
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	members      map[int]models.Member
	matches      map[int]models.Match
	nodes        map[int]models.BracketNode
	history      map[int]models.RatingChange

	tournamentSeq  int
	participantSeq int
	memberSeq      int
	matchSeq       int
	nodeSeq        int
	historySeq     int
}

func newState() *state {
	return &state{
		tournaments:  make(map[int]models.Tournament),
		participants: make(map[int]models.Participant),
		members:      make(map[int]models.Member),
		matches:      make(map[int]models.Match),
		nodes:        make(map[int]models.BracketNode),
		history:      make(map[int]models.RatingChange),
	}
}

func (s *state) clone() *state {
	c := *s
	c.tournaments = maps.Clone(s.tournaments)
	c.participants = maps.Clone(s.participants)
	c.members = maps.Clone(s.members)
	c.matches = maps.Clone(s.matches)
	c.nodes = maps.Clone(s.nodes)
	c.history = maps.Clone(s.history)
	return &c
}

type Option func(*DB)

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// DB holds the committed snapshot shared by every repository of one store.
type DB struct {
	mu        sync.Mutex
	committed *atomic.Pointer[state]
	now       func() time.Time
}

type txKey struct{ db *DB }

// New returns a store whose repositories share one in-memory database.
func New(opts ...Option) *repositories.Store {
	db := NewDB(opts...)
	return db.Store()
}

func NewDB(opts ...Option) *DB {
	db := &DB{
		committed: atomic.NewPointer(newState()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *DB) Store() *repositories.Store {
	return &repositories.Store{
		Transactor:    db,
		Tournaments:   &tournamentRepository{db: db},
		Participants:  &participantRepository{db: db},
		Members:       &memberRepository{db: db},
		Matches:       &matchRepository{db: db},
		Brackets:      &bracketRepository{db: db},
		RatingHistory: &ratingHistoryRepository{db: db},
	}
}

func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{db}).(*state); ok {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := db.committed.Load().clone()
	if err := fn(context.WithValue(ctx, txKey{db}, work)); err != nil {
		return err
	}
	db.committed.Store(work)
	return nil
}

// read returns the state visible to ctx: the open transaction's copy or the committed snapshot.
func (db *DB) read(ctx context.Context) *state {
	if s, ok := ctx.Value(txKey{db}).(*state); ok {
		return s
	}
	return db.committed.Load()
}

// write applies fn inside the caller's transaction, or in a transaction of its own.
func (db *DB) write(ctx context.Context, fn func(s *state) error) error {
	return db.WithinTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{db}).(*state))
	})
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}
