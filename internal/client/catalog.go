package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"anime/catalog/internal/config"
	"anime/catalog/internal/domain"
	"anime/catalog/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/singleflight"
	"resty.dev/v3"
)

// PageLimit is the number of records requested per catalog page.
const PageLimit = 10

var (
	ErrCircuitOpen       = errors.New("circuit breaker is open")
	ErrRateLimited       = errors.New("rate limited by catalog API")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
	ErrMalformedResponse = errors.New("malformed catalog response")
)

type CatalogClient interface {
	GetCatalogPage(ctx context.Context, pageNumber int) (*domain.PageResult, error)
}

type animeListResponse struct {
	Data       *[]domain.Record `json:"data"`
	Pagination struct {
		LastVisiblePage int  `json:"last_visible_page"`
		HasNextPage     bool `json:"has_next_page"`
		CurrentPage     int  `json:"current_page"`
	} `json:"pagination"`
}

type pageWaiters struct {
	ctx    context.Context
	cancel context.CancelFunc
	count  int
}

type catalogClient struct {
	rl            ratelimit.Limiter
	config        config.CatalogConfig
	baseURL       string
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier

	// Concurrent requests for the same page share one upstream call, which is
	// cancelled once every caller has given up on it.
	flights   singleflight.Group
	flightsMu sync.Mutex
	waiters   map[string]*pageWaiters

	// Circuit breaker for HTTP 429
	circuitBreakerMutex sync.RWMutex
	quotaExceededUntil  time.Time
	circuitBreakerDelay time.Duration
	now                 func() time.Time
}

func NewCatalogClient(cfg config.CatalogConfig, proxySupplier proxy.ProxySupplier) CatalogClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &catalogClient{
		rl:                  rl,
		config:              cfg,
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:          client,
		proxySupplier:       proxySupplier,
		circuitBreakerDelay: time.Duration(cfg.BreakerCooldown) * time.Second,
		now:                 time.Now,
		waiters:             make(map[string]*pageWaiters),
	}
}

func (c *catalogClient) GetCatalogPage(ctx context.Context, pageNumber int) (*domain.PageResult, error) {
	if pageNumber < 1 {
		return nil, fmt.Errorf("invalid page number %d", pageNumber)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog page %d: request cancelled: %w", pageNumber, err)
	}

	key := strconv.Itoa(pageNumber)
	w := c.join(ctx, key)
	defer c.leave(key, w)

	// A call joined just as its previous callers all left may have been
	// cancelled on their behalf; it is started again once for this caller.
	for attempt := 0; ; attempt++ {
		ch := c.flights.DoChan(key, func() (any, error) {
			return c.fetchPage(w.ctx, pageNumber)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to fetch catalog page %d: request cancelled: %w", pageNumber, ctx.Err())
		case res = <-ch:
		}

		if res.Err != nil {
			if attempt == 0 && errors.Is(res.Err, context.Canceled) && w.ctx.Err() == nil {
				continue
			}
			return nil, res.Err
		}
		if res.Shared {
			log.Debugf("Shared upstream response for page %d", pageNumber)
		}
		page := *res.Val.(*domain.PageResult)
		page.Records = append([]domain.Record(nil), page.Records...)
		return &page, nil
	}
}

// join registers a caller for key. The shared context is detached from any
// single caller and lives until the last one leaves.
func (c *catalogClient) join(ctx context.Context, key string) *pageWaiters {
	c.flightsMu.Lock()
	defer c.flightsMu.Unlock()

	w, ok := c.waiters[key]
	if !ok {
		shared, cancel := context.WithCancel(context.WithoutCancel(ctx))
		w = &pageWaiters{ctx: shared, cancel: cancel}
		c.waiters[key] = w
	}
	w.count++
	return w
}

func (c *catalogClient) leave(key string, w *pageWaiters) {
	c.flightsMu.Lock()
	defer c.flightsMu.Unlock()

	w.count--
	if w.count > 0 {
		return
	}
	w.cancel()
	if c.waiters[key] == w {
		delete(c.waiters, key)
	}
}

func (c *catalogClient) fetchPage(ctx context.Context, pageNumber int) (*domain.PageResult, error) {
	payload, err := c.fetchJSON(ctx, map[string]string{
		"page":  strconv.Itoa(pageNumber),
		"limit": strconv.Itoa(PageLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog page %d: %w", pageNumber, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("%w: page %d has no data field", ErrMalformedResponse, pageNumber)
	}

	page := &domain.PageResult{
		PageNumber: pageNumber,
		TotalPages: max(1, payload.Pagination.LastVisiblePage),
		Records:    *payload.Data,
	}

	log.Debugf("Successfully fetched page %d with %d records (%d pages total)", page.PageNumber, len(page.Records), page.TotalPages)
	return page, nil
}

func (c *catalogClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := c.now()
	wasOpen := now.Before(c.quotaExceededUntil)
	wasTriggered := !c.quotaExceededUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.quotaExceededUntil.IsZero() && !now.Before(c.quotaExceededUntil) {
			c.quotaExceededUntil = time.Time{}
			log.Infof("✅ Circuit breaker closed - catalog requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *catalogClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.quotaExceededUntil = c.now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Catalog requests disabled until %v",
		c.quotaExceededUntil.Format("15:04:05"))
}

func (c *catalogClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := c.quotaExceededUntil.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *catalogClient) fetchJSON(ctx context.Context, params map[string]string) (*animeListResponse, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return nil, fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	c.rl.Take()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	url := c.baseURL + "/anime"
	payload := &animeListResponse{}
	resp, err := c.request(ctx, params, payload).Get(url)
	if err != nil {
		return nil, c.classify(ctx, resp, err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Rate limit exceeded for URL: %s", url)

		if c.proxySupplier != nil {
			if newProxy := c.proxySupplier.Get(); newProxy != "" {
				log.Infof("🔄 Switching to new proxy: %s", newProxy)
				c.httpClient.SetProxy(newProxy)

				payload = &animeListResponse{}
				retryResp, retryErr := c.request(ctx, params, payload).Get(url)
				if retryErr == nil && !retryResp.IsError() {
					log.Infof("✅ Retry successful with new proxy")
					return payload, nil
				}
			}
		}

		c.triggerCircuitBreaker()
		return nil, ErrRateLimited
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode(), resp.Status())
	}

	return payload, nil
}

// request decodes successful bodies into result regardless of the
// Content-Type the server sends.
func (c *catalogClient) request(ctx context.Context, params map[string]string, result *animeListResponse) *resty.Request {
	return c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetForceResponseContentType("application/json").
		SetResult(result)
}

func (c *catalogClient) classify(ctx context.Context, resp *resty.Response, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}
	// A transport error leaves no status; a decode failure happens after a
	// successful response.
	if resp != nil && resp.IsSuccess() {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return fmt.Errorf("failed to fetch URL: %w", err)
}
