// Package collector is the client SDK for the activity tracking API. It
// mirrors the behaviour expected of admin dashboard frontends: an offline
// queue for flaky connectivity, a bounded store of rejected requests, page
// lifecycle tracking, and a periodic heartbeat.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionHeader carries the tracking session token on every request.
const SessionHeader = "X-Admin-Session"

// DefaultHeartbeatInterval is how often the client reports liveness while a
// session token is held.
const DefaultHeartbeatInterval = 5 * time.Minute

// maxFailedRequests bounds the rejected-request store. When full, the oldest
// entry is dropped to make room.
const maxFailedRequests = 50

// ErrNoSession indicates an operation that needs a session token was called
// before Login.
var ErrNoSession = errors.New("collector: no active session")

// FailedRequest is one request the server rejected.
type FailedRequest struct {
	Path       string
	Payload    map[string]any
	StatusCode int
	Body       string
	At         time.Time
}

type queuedRequest struct {
	path    string
	payload map[string]any
}

// Client talks to the activity tracking API.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	log               *zap.Logger
	heartbeatInterval time.Duration
	fingerprint       Fingerprint
	device            DeviceInfo

	mu        sync.Mutex
	token     string
	sessionID string
	adminID   string
	online    bool
	queue     []queuedRequest
	failed    []FailedRequest
	page      *pageState
	stopBeat  context.CancelFunc
}

type pageState struct {
	name    string
	url     string
	started time.Time
}

// Option customises the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithFingerprint sets the client environment attached to page visits.
func WithFingerprint(fp Fingerprint) Option {
	return func(c *Client) {
		c.fingerprint = fp
	}
}

// WithHeartbeatInterval overrides the heartbeat period.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.heartbeatInterval = interval
		}
	}
}

// New constructs a Client for the given API base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("collector: base url is required")
	}

	c := &Client{
		baseURL:           baseURL,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
		log:               zap.NewNop(),
		heartbeatInterval: DefaultHeartbeatInterval,
		online:            true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.device = c.fingerprint.Resolve()
	return c, nil
}

// Login authenticates, stores the session token, and starts the heartbeat.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, status, err := c.post(ctx, "/login", map[string]any{
		"username": username,
		"password": password,
	}, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("collector: login rejected with status %d", status)
	}

	var envelope struct {
		Data struct {
			SessionToken string `json:"session_token"`
			SessionID    string `json:"session_id"`
			Admin        struct {
				ID string `json:"id"`
			} `json:"admin"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("collector: decode login response: %w", err)
	}
	if envelope.Data.SessionToken == "" {
		return errors.New("collector: login response missing session token")
	}

	c.mu.Lock()
	c.token = envelope.Data.SessionToken
	c.sessionID = envelope.Data.SessionID
	c.adminID = envelope.Data.Admin.ID
	c.mu.Unlock()

	c.startHeartbeat()
	return nil
}

// Logout closes the session and stops the heartbeat. The local session
// state is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	sessionID := c.sessionID
	adminID := c.adminID
	c.token = ""
	c.sessionID = ""
	c.adminID = ""
	stop := c.stopBeat
	c.stopBeat = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if token == "" {
		return ErrNoSession
	}

	_, status, err := c.post(ctx, "/logout", map[string]any{
		"session_id": sessionID,
		"admin_id":   adminID,
	}, token)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("collector: logout rejected with status %d", status)
	}
	return nil
}

// Token returns the current session token, empty when logged out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Activity is one admin action to report.
type Activity struct {
	Type           string
	Category       string
	Description    string
	TargetResource string
	TargetID       string
	OldValues      map[string]any
	NewValues      map[string]any
	AdditionalData map[string]any
	ResponseStatus int
	ExecutionMS    int64
}

// TrackActivity reports one activity. While offline the request is queued
// and replayed on reconnect.
func (c *Client) TrackActivity(ctx context.Context, activity Activity) error {
	payload := map[string]any{
		"activity_type":     activity.Type,
		"activity_category": activity.Category,
		"description":       activity.Description,
	}
	if activity.TargetResource != "" {
		payload["target_resource"] = activity.TargetResource
	}
	if activity.TargetID != "" {
		payload["target_id"] = activity.TargetID
	}
	if activity.OldValues != nil {
		payload["old_values"] = activity.OldValues
	}
	if activity.NewValues != nil {
		payload["new_values"] = activity.NewValues
	}
	if activity.AdditionalData != nil {
		payload["additional_data"] = activity.AdditionalData
	}
	if activity.ResponseStatus != 0 {
		payload["response_status"] = activity.ResponseStatus
	}
	if activity.ExecutionMS != 0 {
		payload["execution_time_ms"] = activity.ExecutionMS
	}
	return c.send(ctx, "/activity", payload)
}

// StartPage reports a page visit with zero duration and remembers the page
// so EndPage can report the time spent.
func (c *Client) StartPage(ctx context.Context, name, url, referrer string) error {
	payload := map[string]any{
		"page_name":      name,
		"page_url":       url,
		"visit_duration": 0,
	}
	if referrer != "" {
		payload["referrer_url"] = referrer
	}
	if c.device.ScreenResolution != "" {
		payload["screen_resolution"] = c.device.ScreenResolution
	}
	payload["browser_name"] = c.device.BrowserName
	payload["browser_version"] = c.device.BrowserVersion
	payload["os_name"] = c.device.OSName
	payload["device_type"] = c.device.DeviceType

	c.mu.Lock()
	c.page = &pageState{name: name, url: url, started: time.Now()}
	c.mu.Unlock()

	return c.send(ctx, "/page-visit", payload)
}

// EndPage reports the current page again with its recomputed time on page
// and flushes any queued requests so nothing is lost on navigation.
func (c *Client) EndPage(ctx context.Context) error {
	c.mu.Lock()
	page := c.page
	c.page = nil
	c.mu.Unlock()

	if page == nil {
		return nil
	}

	payload := map[string]any{
		"page_name":      page.name,
		"page_url":       page.url,
		"visit_duration": int64(time.Since(page.started).Seconds()),
	}
	if c.device.ScreenResolution != "" {
		payload["screen_resolution"] = c.device.ScreenResolution
	}
	payload["browser_name"] = c.device.BrowserName
	payload["browser_version"] = c.device.BrowserVersion
	payload["os_name"] = c.device.OSName
	payload["device_type"] = c.device.DeviceType

	if err := c.send(ctx, "/page-visit", payload); err != nil {
		return err
	}
	return c.Flush(ctx)
}

// PageHidden reports the page losing visibility.
func (c *Client) PageHidden(ctx context.Context) error {
	return c.visibilityEvent(ctx, "PAGE_HIDDEN", "Page hidden")
}

// PageVisible reports the page regaining visibility and restarts the
// time-on-page clock, so backgrounded time is not counted by EndPage.
func (c *Client) PageVisible(ctx context.Context) error {
	c.mu.Lock()
	if c.page != nil {
		c.page.started = time.Now()
	}
	c.mu.Unlock()
	return c.visibilityEvent(ctx, "PAGE_VISIBLE", "Page visible")
}

func (c *Client) visibilityEvent(ctx context.Context, activityType, description string) error {
	payload := map[string]any{
		"activity_type":     activityType,
		"activity_category": "NAVIGATION",
		"description":       description,
	}
	c.mu.Lock()
	if c.page != nil {
		payload["additional_data"] = map[string]any{"page_url": c.page.url}
	}
	c.mu.Unlock()
	return c.send(ctx, "/activity", payload)
}

// TrackError reports a client-side error as a medium severity security
// event. Security events are accepted without a session so errors raised
// before login still reach the server.
func (c *Client) TrackError(ctx context.Context, message string, details map[string]any) error {
	return c.securityEvent(ctx, "ERROR", "MEDIUM", message, details)
}

// TrackSuspiciousActivity reports a high severity security event.
func (c *Client) TrackSuspiciousActivity(ctx context.Context, description string, details map[string]any) error {
	return c.securityEvent(ctx, "SUSPICIOUS_ACTIVITY", "HIGH", description, details)
}

func (c *Client) securityEvent(ctx context.Context, eventType, severity, description string, details map[string]any) error {
	payload := map[string]any{
		"event_type":        eventType,
		"event_severity":    severity,
		"event_description": description,
	}
	if details != nil {
		payload["additional_data"] = details
	}
	c.mu.Lock()
	if c.adminID != "" {
		payload["admin_id"] = c.adminID
	}
	c.mu.Unlock()
	return c.send(ctx, "/security-event", payload)
}

// TrackDataChange reports an UPDATE activity with before and after values.
func (c *Client) TrackDataChange(ctx context.Context, resource, id string, oldValues, newValues map[string]any) error {
	return c.TrackActivity(ctx, Activity{
		Type:           "UPDATE",
		Category:       "DATA_MANAGEMENT",
		Description:    fmt.Sprintf("Changed %s %s", resource, id),
		TargetResource: resource,
		TargetID:       id,
		OldValues:      oldValues,
		NewValues:      newValues,
	})
}

// TrackFeatureUsage reports a FEATURE_USAGE activity that feeds the
// per-admin feature counters.
func (c *Client) TrackFeatureUsage(ctx context.Context, feature, category string, success bool, executionMS int64) error {
	return c.TrackActivity(ctx, Activity{
		Type:           "FEATURE_USAGE",
		Category:       category,
		Description:    "Used feature " + feature,
		TargetResource: feature,
		AdditionalData: map[string]any{
			"success":        success,
			"execution_time": executionMS,
		},
	})
}

// SetOnline flips connectivity. Going online replays the offline queue in
// arrival order before any new events are sent.
func (c *Client) SetOnline(ctx context.Context, online bool) error {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()

	if online {
		return c.Flush(ctx)
	}
	return nil
}

// Flush replays the offline queue in FIFO order, then retries the
// rejected-request store. It stops at the first network failure, leaving
// the remainder for the next flush.
func (c *Client) Flush(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.online {
			c.mu.Unlock()
			return nil
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return c.retryFailed(ctx)
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		token := c.token
		c.mu.Unlock()

		body, status, err := c.post(ctx, next.path, next.payload, token)
		if err != nil {
			c.mu.Lock()
			c.online = false
			c.queue = append([]queuedRequest{next}, c.queue...)
			c.mu.Unlock()
			return fmt.Errorf("collector: flush interrupted: %w", err)
		}
		if status >= 400 {
			c.recordFailed(next.path, next.payload, status, body)
		}
	}
}

// retryFailed replays the rejected-request store once. Requests the server
// now accepts are removed; renewed rejections keep their slot with the
// latest status. A network failure flips the client offline and keeps the
// remainder for a later flush.
func (c *Client) retryFailed(ctx context.Context) error {
	c.mu.Lock()
	if len(c.failed) == 0 {
		c.mu.Unlock()
		return nil
	}
	pending := c.failed
	c.failed = nil
	token := c.token
	c.mu.Unlock()

	var kept []FailedRequest
	for i, fr := range pending {
		body, status, err := c.post(ctx, fr.Path, fr.Payload, token)
		if err != nil {
			kept = append(kept, pending[i:]...)
			c.mu.Lock()
			c.online = false
			c.failed = append(kept, c.failed...)
			c.mu.Unlock()
			return fmt.Errorf("collector: retry interrupted: %w", err)
		}
		if status >= 400 {
			fr.StatusCode = status
			fr.Body = string(body)
			fr.At = time.Now()
			kept = append(kept, fr)
		}
	}

	c.mu.Lock()
	c.failed = append(kept, c.failed...)
	c.mu.Unlock()
	return nil
}

// QueuedRequests returns how many requests await replay.
func (c *Client) QueuedRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// FailedRequests returns a copy of the rejected-request store.
func (c *Client) FailedRequests() []FailedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FailedRequest, len(c.failed))
	copy(out, c.failed)
	return out
}

func (c *Client) send(ctx context.Context, path string, payload map[string]any) error {
	c.mu.Lock()
	token := c.token
	online := c.online
	queued := len(c.queue)
	// Security events carry their own attribution and may be sent before a
	// session exists. Everything else needs the token.
	if token == "" && path != "/security-event" {
		c.mu.Unlock()
		return ErrNoSession
	}
	if !online {
		c.queue = append(c.queue, queuedRequest{path: path, payload: payload})
		c.mu.Unlock()
		c.log.Debug("queued request while offline", zap.String("path", path))
		return nil
	}
	c.mu.Unlock()

	// Earlier events drain first so the server sees arrival order.
	if queued > 0 {
		if err := c.Flush(ctx); err != nil {
			c.mu.Lock()
			c.queue = append(c.queue, queuedRequest{path: path, payload: payload})
			c.mu.Unlock()
			return nil
		}
	}

	body, status, err := c.post(ctx, path, payload, token)
	if err != nil {
		c.mu.Lock()
		c.online = false
		c.queue = append(c.queue, queuedRequest{path: path, payload: payload})
		c.mu.Unlock()
		c.log.Warn("request failed, queued for replay", zap.String("path", path), zap.Error(err))
		return nil
	}
	if status >= 400 {
		c.recordFailed(path, payload, status, body)
		return fmt.Errorf("collector: %s rejected with status %d", path, status)
	}
	return nil
}

func (c *Client) recordFailed(path string, payload map[string]any, status int, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.failed) >= maxFailedRequests {
		dropped := c.failed[0]
		c.failed = c.failed[1:]
		c.log.Warn("failed request store full, dropping oldest",
			zap.String("path", dropped.Path),
			zap.Int("status", dropped.StatusCode))
	}
	c.failed = append(c.failed, FailedRequest{
		Path:       path,
		Payload:    payload,
		StatusCode: status,
		Body:       string(body),
		At:         time.Now(),
	})
}

func (c *Client) startHeartbeat() {
	c.mu.Lock()
	if c.stopBeat != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopBeat = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.Token() == "" {
					return
				}
				err := c.TrackActivity(ctx, Activity{
					Type:        "HEARTBEAT",
					Category:    "SYSTEM",
					Description: "Session heartbeat",
				})
				if err != nil && !errors.Is(err, ErrNoSession) {
					c.log.Debug("heartbeat failed", zap.Error(err))
				}
			}
		}
	}()
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any, token string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("collector: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("collector: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ua := c.fingerprint.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("collector: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("collector: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
