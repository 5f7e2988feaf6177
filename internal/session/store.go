package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
)

type entry struct {
	state    *State
	lastSeen time.Time
}

// Store keeps one State per user. The mutex guards the map only; a State
// belongs to the single turn currently being handled for its user.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*entry
	now      func() time.Time
	log      logx.Logger
}

// NewStore creates an empty Store.
func NewStore(log logx.Logger) *Store {
	return &Store{
		sessions: make(map[int64]*entry),
		now:      time.Now,
		log:      log,
	}
}

// Get returns the state of user, creating it on first use.
func (s *Store) Get(user int64) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[user]
	if !ok {
		e = &entry{state: &State{}}
		s.sessions[user] = e
	}
	e.lastSeen = s.now()
	return e.state
}

// Reset drops the state of user.
func (s *Store) Reset(user int64) {
	s.mu.Lock()
	delete(s.sessions, user)
	s.mu.Unlock()
	s.log.Debug("session reset", logx.Int64("user", user))
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than ttl and returns how many
// were removed.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	removed := 0
	for user, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, user)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.log.Debug("swept idle sessions", logx.Int("removed", removed))
	}
	return removed
}

// Sweeper evicts idle sessions on a cron schedule.
type Sweeper struct {
	cron *cron.Cron
}

// NewSweeper schedules store sweeps. spec accepts standard cron syntax and
// descriptors such as "@every 10m".
func NewSweeper(store *Store, spec string, ttl time.Duration) (*Sweeper, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { store.Sweep(ttl) }); err != nil {
		return nil, err
	}
	return &Sweeper{cron: c}, nil
}

// Run starts the schedule and blocks until ctx is done.
func (w *Sweeper) Run(ctx context.Context) {
	w.cron.Start()
	<-ctx.Done()
	<-w.cron.Stop().Done()
}
