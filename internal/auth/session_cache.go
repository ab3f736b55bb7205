package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecowaste/admintrack/internal/cache"
	"github.com/ecowaste/admintrack/internal/models"
)

const sessionCacheKeyPrefix = "tracking:sessions:token:"

// NewStoreSessionCache wraps a cache.Store (Redis or database backed) inside
// a SessionCache implementation.
func NewStoreSessionCache(store cache.Store) SessionCache {
	if store == nil {
		return nil
	}
	return &sessionStoreCache{store: store}
}

type sessionStoreCache struct {
	store cache.Store
}

func (c *sessionStoreCache) Get(ctx context.Context, token string) (*models.AdminSession, error) {
	key := cacheKey(token)
	if key == "" {
		return nil, errSessionCacheMiss
	}

	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errSessionCacheMiss
	}

	var session models.AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session cache: decode: %w", err)
	}
	session.SessionToken = token
	return &session, nil
}

func (c *sessionStoreCache) Set(ctx context.Context, session *models.AdminSession, ttl time.Duration) error {
	if session == nil {
		return errors.New("session cache: session is nil")
	}
	key := cacheKey(session.SessionToken)
	if key == "" {
		return errors.New("session cache: token missing")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session cache: marshal: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	return c.store.Set(ctx, key, payload, ttl)
}

func (c *sessionStoreCache) Delete(ctx context.Context, token string) error {
	key := cacheKey(token)
	if key == "" {
		return nil
	}
	return c.store.Delete(ctx, key)
}

func cacheKey(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return sessionCacheKeyPrefix + token
}
