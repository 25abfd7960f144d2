package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/bakery.search/internal/search/pager"
	"github.com/louisbranch/bakery.search/internal/search/render"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"github.com/louisbranch/bakery.search/internal/search/tabs"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/sessioncookie"
	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
)

const sessionCookieName = sessioncookie.Name

// searchSession is the search state of one browser.
type searchSession struct {
	id    string
	pager *pager.Pager
	tabs  *tabs.Controller

	mu       sync.Mutex
	term     string
	local    []result.Item
	localErr bool
	pending  *pager.Ticket
	lastSeen time.Time
}

// setLocal records the local ontology results shown for the current term.
func (s *searchSession) setLocal(term string, items []result.Item, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = term
	s.local = items
	s.localErr = failed
}

// localResults returns the term and local results last shown.
func (s *searchSession) localResults() (string, []result.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term, s.local, s.localErr
}

// park stores a ticket for a later /dbpedia/fetch call.
func (s *searchSession) park(ticket pager.Ticket) {
	s.mu.Lock()
	s.pending = &ticket
	s.mu.Unlock()
}

// takePending returns and clears the parked ticket.
func (s *searchSession) takePending() (pager.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return pager.Ticket{}, false
	}
	ticket := *s.pending
	s.pending = nil
	return ticket, true
}

func (s *searchSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *searchSession) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

func (s *searchSession) snapshot() webstorage.Snapshot {
	state := s.pager.Snapshot()
	return webstorage.Snapshot{
		SessionID:  s.id,
		Term:       state.Term,
		Language:   state.Language,
		Offset:     state.Offset,
		HasMore:    state.HasMore,
		Phase:      string(state.Phase),
		ActivePane: s.tabs.Active(),
	}
}

// sessionStore keeps live sessions in memory with an idle TTL and mirrors
// their pagination coordinates into a snapshot store.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*searchSession

	ttl       time.Duration
	now       func() time.Time
	snapshots webstorage.Store
	renderer  *render.Renderer
	pageSize  int
	logger    *slog.Logger
	policy    requestmeta.SchemePolicy
}

func newSessionStore(snapshots webstorage.Store, renderer *render.Renderer, pageSize int, ttl time.Duration, logger *slog.Logger) *sessionStore {
	return &sessionStore{
		sessions:  make(map[string]*searchSession),
		ttl:       ttl,
		now:       time.Now,
		snapshots: snapshots,
		renderer:  renderer,
		pageSize:  pageSize,
		logger:    logger,
	}
}

func (s *sessionStore) newSession(id string) *searchSession {
	return &searchSession{
		id:       id,
		pager:    pager.New(s.renderer, pager.WithPageSize(s.pageSize), pager.WithLogger(s.logger)),
		tabs:     tabs.New(tabs.PaneLocal, tabs.DefaultPanes()...),
		lastSeen: s.now(),
	}
}

// lookup returns the session named by the request cookie, restoring it from
// the snapshot store when it is no longer in memory.
func (s *sessionStore) lookup(r *http.Request) *searchSession {
	id, ok := sessioncookie.Read(r)
	if !ok {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.touch(s.now())
		return sess
	}
	return s.restore(r.Context(), id)
}

func (s *sessionStore) restore(ctx context.Context, id string) *searchSession {
	if s.snapshots == nil {
		return nil
	}
	snapshot, found, err := s.snapshots.GetSnapshot(ctx, id)
	if err != nil {
		s.logger.Warn("load session snapshot", "session", id, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	sess := s.newSession(id)
	sess.pager.Restore(pager.State{
		Term:     snapshot.Term,
		Language: snapshot.Language,
		Offset:   snapshot.Offset,
		HasMore:  snapshot.HasMore,
		Phase:    pager.Phase(snapshot.Phase),
	})
	if snapshot.ActivePane != "" {
		if err := sess.tabs.Activate(snapshot.ActivePane); err != nil {
			s.logger.Debug("ignore snapshot pane", "session", id, "pane", snapshot.ActivePane, "error", err)
		}
	}
	sess.term = snapshot.Term

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing
	}
	s.sessions[id] = sess
	return sess
}

// ensure returns the request's session, creating one and setting the cookie
// when there is none.
func (s *sessionStore) ensure(w http.ResponseWriter, r *http.Request) *searchSession {
	if sess := s.lookup(r); sess != nil {
		return sess
	}
	sess := s.newSession(uuid.NewString())
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	sessioncookie.Write(w, r, sess.id, s.ttl, s.policy)
	return sess
}

// save mirrors the session's coordinates into the snapshot store.
func (s *sessionStore) save(ctx context.Context, sess *searchSession) {
	if s.snapshots == nil || sess == nil {
		return
	}
	snapshot := sess.snapshot()
	snapshot.UpdatedAt = s.now().UTC()
	if err := s.snapshots.PutSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn("save session snapshot", "session", sess.id, "error", err)
	}
}

// sweep drops sessions idle for longer than the TTL.
func (s *sessionStore) sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	if s.snapshots != nil {
		if _, err := s.snapshots.DeleteExpired(ctx, cutoff); err != nil {
			s.logger.Warn("delete expired snapshots", "error", err)
		}
	}
	return removed
}

// runSweeper sweeps every interval until ctx ends.
func (s *sessionStore) runSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sweep(ctx); removed > 0 {
				s.logger.Debug("swept idle sessions", "count", removed)
			}
		}
	}
}
