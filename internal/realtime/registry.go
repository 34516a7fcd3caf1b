package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/pkg/logger"
	"github.com/hireloop/jobboard-api/pkg/metrics"
)

// sessionBuffer is the per-connection event queue depth. A full buffer
// means the consumer is too slow and further events are dropped; the
// HTTP API remains the source of truth, so a dropped event only delays
// the client until its next re-fetch.
const sessionBuffer = 16

type session struct {
	connID   string
	userID   uuid.UUID
	joinedAt time.Time
	ch       chan Event
}

// Registry tracks which live connections belong to which user and fans
// events out to them. It is an injected service, not a singleton, so
// tests can build isolated instances. All methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session               // connID -> session
	users    map[uuid.UUID]map[string]*session // userID -> connID -> session

	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRegistry(log *logger.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		users:    make(map[uuid.UUID]map[string]*session),
		logger:   log,
		metrics:  m,
	}
}

// Join associates a connection with a user and returns the channel the
// connection should drain. Calling Join again with the same pair is
// idempotent and returns the existing channel. Re-joining an existing
// connection under a different user re-associates it.
func (r *Registry) Join(connID string, userID uuid.UUID) (<-chan Event, error) {
	if connID == "" {
		return nil, fmt.Errorf("connection id is required")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[connID]; ok {
		if existing.userID == userID {
			return existing.ch, nil
		}
		r.removeLocked(existing)
	}

	s := &session{
		connID:   connID,
		userID:   userID,
		joinedAt: time.Now(),
		ch:       make(chan Event, sessionBuffer),
	}
	r.sessions[connID] = s
	if r.users[userID] == nil {
		r.users[userID] = make(map[string]*session)
	}
	r.users[userID][connID] = s

	if r.metrics != nil {
		r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.metrics.ConnectedUsers.Set(float64(len(r.users)))
	}
	if r.logger != nil {
		r.logger.Debug("session joined", "conn_id", connID, "user_id", userID.String())
	}
	return s.ch, nil
}

// Leave removes a connection and closes its channel. Unknown
// connections are a no-op.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return
	}
	r.removeLocked(s)

	if r.metrics != nil {
		r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.metrics.ConnectedUsers.Set(float64(len(r.users)))
	}
}

func (r *Registry) removeLocked(s *session) {
	delete(r.sessions, s.connID)
	if conns, ok := r.users[s.userID]; ok {
		delete(conns, s.connID)
		if len(conns) == 0 {
			delete(r.users, s.userID)
		}
	}
	close(s.ch)
}

// SendToUser delivers the event to every live session of the user.
// Zero live sessions is a silent no-op: the event layer is best-effort
// and clients rediscover missed state over HTTP. Sessions whose buffer
// is full are skipped rather than blocked on.
func (r *Registry) SendToUser(userID uuid.UUID, ev Event) {
	// The lock is held across the sends so a concurrent Leave cannot
	// close a channel mid-delivery. Sends never block.
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.users[userID] {
		select {
		case s.ch <- ev:
			if r.metrics != nil {
				r.metrics.EventsDelivered.WithLabelValues(string(ev.Type)).Inc()
			}
		default:
			if r.metrics != nil {
				r.metrics.EventsDropped.WithLabelValues(string(ev.Type)).Inc()
			}
			if r.logger != nil {
				r.logger.Warn("session buffer full, event dropped",
					"conn_id", s.connID, "event_type", string(ev.Type))
			}
		}
	}
}

// Shutdown closes every session channel. Used on server teardown so
// write pumps drain and exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		close(s.ch)
	}
	r.sessions = make(map[string]*session)
	r.users = make(map[uuid.UUID]map[string]*session)

	if r.metrics != nil {
		r.metrics.ActiveSessions.Set(0)
		r.metrics.ConnectedUsers.Set(0)
	}
}

// SessionCount reports the number of live sessions for a user.
func (r *Registry) SessionCount(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}
