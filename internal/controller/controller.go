package controller

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"anime/catalog/internal/client"
	"anime/catalog/internal/domain"
	"anime/catalog/internal/state"
	"anime/catalog/internal/viewstate"

	log "github.com/sirupsen/logrus"
)

var (
	ErrNotRestored     = errors.New("preferences have not been restored yet")
	ErrAlreadyRestored = errors.New("preferences were already restored")
)

const defaultFetchTimeout = 30 * time.Second

// View is a read-only snapshot of the controller.
type View struct {
	Preferences domain.Preferences `json:"preferences"`
	// Records is the filtered and sorted projection. It is empty while a page
	// is loading.
	Records    []domain.Record `json:"records"`
	Fetched    int             `json:"fetched"`
	TotalPages int             `json:"totalPages"`
	Loading    bool            `json:"loading"`
	Location   string          `json:"location"`
}

type Option func(*Controller)

// WithFetchTimeout bounds every catalog request.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithNotify registers fn to be called after a fetch completes and the view
// changed. fn runs outside the controller lock.
func WithNotify(fn func()) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

// Controller owns the preferences, the current page of records, and the two
// side-effect channels: persistence and remote fetches.
type Controller struct {
	fetcher      client.CatalogClient
	store        state.Store
	location     Location
	fetchTimeout time.Duration
	notify       func()

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	inflight    map[uint64]chan struct{}
	prefs       domain.Preferences
	restored    bool
	records     []domain.Record
	totalPages  int
	loading     bool
	token       uint64
	cancelFetch context.CancelFunc
}

func New(fetcher client.CatalogClient, store state.Store, location Location, opts ...Option) *Controller {
	if location == nil {
		location = NewAddress("")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:      fetcher,
		store:        store,
		location:     location,
		fetchTimeout: defaultFetchTimeout,
		baseCtx:      ctx,
		baseCancel:   cancel,
		inflight:     make(map[uint64]chan struct{}),
		prefs:        domain.DefaultPreferences(),
		totalPages:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore reads persisted preferences, overlays any preference keys present
// in navigation, and requests the restored page. No write happens before the
// read completes; a failed read leaves the controller unrestored.
func (c *Controller) Restore(ctx context.Context, navigation url.Values) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.restored {
		return ErrAlreadyRestored
	}

	values, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore preferences: %w", err)
	}

	prefs, err := viewstate.DecodeStorage(values)
	if err != nil {
		log.Warnf("⚠️ Ignoring malformed persisted preferences: %v", err)
	}
	if len(values) == 0 {
		log.Debug("No persisted preferences found, using defaults")
	} else {
		log.Debugf("Preferences restored: %+v", prefs)
	}

	restored := prefs
	if viewstate.HasPreferences(navigation) {
		prefs, err = viewstate.DecodeQuery(prefs, navigation)
		if err != nil {
			log.Warnf("⚠️ Ignoring malformed query preferences: %v", err)
		}
	}

	c.prefs = prefs
	c.restored = true
	c.startFetchLocked(prefs.Page)

	if prefs != restored {
		return c.persistLocked(ctx, prefs)
	}
	c.location.Replace(viewstate.EncodeQuery(prefs))
	return nil
}

// Dispatch applies actions as one atomic update. A change is persisted once
// to both channels; a page change also requests the new page. Persistence
// failures are returned but never roll back the in-memory preferences.
func (c *Controller) Dispatch(ctx context.Context, actions ...viewstate.Action) (domain.Preferences, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.restored {
		return c.prefs, ErrNotRestored
	}

	prev := c.prefs
	next := viewstate.Apply(prev, actions...)
	if next == prev {
		return next, nil
	}

	c.prefs = next
	if next.Page != prev.Page {
		c.startFetchLocked(next.Page)
	}

	return next, c.persistLocked(ctx, next)
}

// Refresh requests the current page again.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.restored {
		return ErrNotRestored
	}
	c.startFetchLocked(c.prefs.Page)
	return nil
}

func (c *Controller) Preferences() domain.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// View derives the current projection.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Preferences: c.prefs,
		Records:     []domain.Record{},
		Fetched:     len(c.records),
		TotalPages:  c.totalPages,
		Loading:     c.loading,
	}
	if !c.loading {
		v.Records = viewstate.Derive(c.records, c.prefs)
	}
	if addr, ok := c.location.(fmt.Stringer); ok {
		v.Location = addr.String()
	}
	return v
}

// Wait blocks until every in-flight fetch has finished, including fetches
// started by other goroutines while waiting. It is safe to call concurrently
// with Dispatch and Refresh.
func (c *Controller) Wait() {
	for {
		c.mu.Lock()
		pending := make([]chan struct{}, 0, len(c.inflight))
		for _, done := range c.inflight {
			pending = append(pending, done)
		}
		c.mu.Unlock()

		if len(pending) == 0 {
			return
		}
		for _, done := range pending {
			<-done
		}
	}
}

// Close cancels in-flight fetches and waits for them. No fetch starts after
// Close.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.baseCancel()
	c.Wait()
}

func (c *Controller) persistLocked(ctx context.Context, prefs domain.Preferences) error {
	var errs []error
	if err := c.store.Save(ctx, viewstate.EncodeStorage(prefs)); err != nil {
		log.Errorf("❌ Failed to persist preferences: %v", err)
		errs = append(errs, err)
	}
	c.location.Replace(viewstate.EncodeQuery(prefs))
	return errors.Join(errs...)
}

func (c *Controller) startFetchLocked(page int) {
	if c.closed {
		return
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
	}

	c.token++
	token := c.token
	ctx, cancel := context.WithTimeout(c.baseCtx, c.fetchTimeout)
	c.cancelFetch = cancel
	c.loading = true

	done := make(chan struct{})
	c.inflight[token] = done
	go c.fetch(ctx, cancel, token, page, done)
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, token uint64, page int, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		delete(c.inflight, token)
		c.mu.Unlock()
		close(done)
	}()
	defer cancel()

	result, err := c.fetcher.GetCatalogPage(ctx, page)

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		log.Debugf("Discarding superseded response for page %d", page)
		return
	}

	c.loading = false
	c.cancelFetch = nil
	if err != nil {
		log.Errorf("❌ Failed to fetch catalog page %d: %v", page, err)
	} else {
		c.records = result.Records
		c.totalPages = max(1, result.TotalPages)
		log.Debugf("Loaded page %d: %d records", page, len(result.Records))
	}
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}
