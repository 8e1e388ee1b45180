package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"anime/catalog/internal/controller"
	"anime/catalog/internal/domain"
	"anime/catalog/internal/render"
	"anime/catalog/internal/viewstate"
)

const (
	SessionCookie = "catalog_session"

	maxActionsBody = 64 << 10

	defaultMaxSessions = 256
	defaultSessionTTL  = 30 * time.Minute
)

type sessionKey struct{}

// ControllerFactory builds an unrestored controller for one browser session.
type ControllerFactory func(sessionID string) *controller.Controller

type Server struct {
	newController ControllerFactory
	columns       []render.Column
	timeout       time.Duration
	maxSessions   int
	sessionTTL    time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one entry of the session table. ready is closed once the
// controller has been restored, or err is set and the entry removed.
type session struct {
	ctrl     *controller.Controller
	err      error
	ready    chan struct{}
	lastUsed time.Time
}

func (e *session) isReady() bool {
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

type Option func(*Server)

// WithMaxSessions caps the number of live sessions. The least recently used
// session is closed to make room for a new one.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL expires sessions idle for longer than d.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

type ViewResponse struct {
	Preferences domain.Preferences `json:"preferences"`
	Fetched     int                `json:"fetched"`
	TotalPages  int                `json:"totalPages"`
	Loading     bool               `json:"loading"`
	Location    string             `json:"location"`
	Table       render.Projection  `json:"table"`
	Error       string             `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(newController ControllerFactory, columns []render.Column, opts ...Option) *Server {
	if len(columns) == 0 {
		columns = render.DefaultColumns
	}
	s := &Server{
		newController: newController,
		columns:       columns,
		timeout:       30 * time.Second,
		maxSessions:   defaultMaxSessions,
		sessionTTL:    defaultSessionTTL,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.StandardLogger(), NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.session)
		r.Get("/view", s.handleView)
		r.Post("/actions", s.handleActions)
		r.Post("/reset", s.handleReset)
		r.Post("/refresh", s.handleRefresh)
	})
	return r
}

// Close stops every session controller.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for id, e := range sessions {
		<-e.ready
		if e.err == nil {
			e.ctrl.Close()
		}
		log.Debugf("Session %s closed", id)
	}
}

// session assigns a session id cookie to every API request.
func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			log.Debugf("New session %s", id)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

// controllerFor returns the session's controller. A new controller is
// restored with the request query as its navigation; restored reports
// whether that happened here. The restore runs outside the session table
// lock, and concurrent requests for the same new session wait for it.
func (s *Server) controllerFor(r *http.Request) (c *controller.Controller, restored bool, err error) {
	id, _ := r.Context().Value(sessionKey{}).(string)

	s.mu.Lock()
	now := s.now()
	if e, ok := s.sessions[id]; ok {
		e.lastUsed = now
		s.mu.Unlock()

		select {
		case <-e.ready:
		case <-r.Context().Done():
			return nil, false, r.Context().Err()
		}
		if e.err != nil {
			return nil, false, e.err
		}
		return e.ctrl, false, nil
	}

	e := &session{ready: make(chan struct{}), lastUsed: now}
	evicted := s.evictLocked(now)
	s.sessions[id] = e
	s.mu.Unlock()

	for _, old := range evicted {
		old.Close()
	}

	c = s.newController(id)
	if err := c.Restore(r.Context(), r.URL.Query()); err != nil {
		s.mu.Lock()
		if s.sessions[id] == e {
			delete(s.sessions, id)
		}
		s.mu.Unlock()

		e.err = err
		close(e.ready)
		c.Close()
		return nil, false, err
	}

	e.ctrl = c
	close(e.ready)
	return c, true, nil
}

// evictLocked drops expired sessions, then the least recently used ones
// until a new session fits under the cap. Sessions still restoring are
// never evicted. The caller closes the returned controllers.
func (s *Server) evictLocked(now time.Time) []*controller.Controller {
	var evicted []*controller.Controller
	for id, e := range s.sessions {
		if e.isReady() && now.Sub(e.lastUsed) >= s.sessionTTL {
			delete(s.sessions, id)
			evicted = append(evicted, e.ctrl)
			log.Debugf("Session %s expired", id)
		}
	}

	for len(s.sessions) >= s.maxSessions {
		oldestID := ""
		var oldest *session
		for id, e := range s.sessions {
			if e.isReady() && (oldest == nil || e.lastUsed.Before(oldest.lastUsed)) {
				oldestID, oldest = id, e
			}
		}
		if oldest == nil {
			break
		}
		delete(s.sessions, oldestID)
		evicted = append(evicted, oldest.ctrl)
		log.Debugf("Session %s evicted", oldestID)
	}
	return evicted
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	c, restored, err := s.controllerFor(r)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	var dispatchErr error
	q := r.URL.Query()
	if !restored && viewstate.HasPreferences(q) {
		_, dispatchErr = c.Dispatch(r.Context(), navigate(q))
	}
	s.writeView(w, r, c, dispatchErr)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	var req actionsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	actions, err := decodeActions(req.Actions)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	c, _, err := s.controllerFor(r)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	_, err = c.Dispatch(r.Context(), actions...)
	s.writeView(w, r, c, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.controllerFor(r)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	_, err = c.Dispatch(r.Context(), viewstate.Reset())
	s.writeView(w, r, c, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.controllerFor(r)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeView(w, r, c, c.Refresh())
}

// writeView renders the session view. ?wait=true blocks until the pending
// page has loaded. A persistence failure is reported alongside the view
// since the preferences were still applied.
func (s *Server) writeView(w http.ResponseWriter, r *http.Request, c *controller.Controller, dispatchErr error) {
	if r.URL.Query().Get("wait") == "true" {
		c.Wait()
	}

	v := c.View()
	resp := ViewResponse{
		Preferences: v.Preferences,
		Fetched:     v.Fetched,
		TotalPages:  v.TotalPages,
		Loading:     v.Loading,
		Location:    v.Location,
		Table:       render.Project(v.Records, s.columns),
	}
	if dispatchErr != nil {
		resp.Error = dispatchErr.Error()
	}

	if v.Location != "" {
		w.Header().Set("Content-Location", v.Location)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	log.Warnf("⚠️ Request failed with %d: %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("❌ Failed to write response: %v", err)
	}
}
