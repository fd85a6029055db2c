// Package cache provides a Redis-backed cache of active policy documents.
// Active-document lookups sit on the consent hot path (every form load does
// one), while documents change only on admin activation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"yinyom/internal/policy/models"
	"yinyom/pkg/domain"
)

const activeDocKeyPrefix = "yinyom:policy:active:"

// ActiveDocuments caches the resolved active document per audience pair.
type ActiveDocuments struct {
	client *redis.Client
	ttl    time.Duration
}

func NewActiveDocuments(client *redis.Client, ttl time.Duration) *ActiveDocuments {
	return &ActiveDocuments{client: client, ttl: ttl}
}

func key(userType domain.UserType, language domain.Language) string {
	return activeDocKeyPrefix + string(userType) + ":" + string(language)
}

// Get returns the cached document, or (nil, nil) on a miss. Redis errors are
// returned so the caller can decide to fall through to the store.
func (c *ActiveDocuments) Get(ctx context.Context, userType domain.UserType, language domain.Language) (*models.Document, error) {
	raw, err := c.client.Get(ctx, key(userType, language)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Corrupt entry: drop it and report a miss.
		_ = c.client.Del(ctx, key(userType, language)).Err()
		return nil, nil
	}
	return &doc, nil
}

func (c *ActiveDocuments) Set(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(doc.UserType, doc.Language), raw, c.ttl).Err()
}

// Invalidate drops the cached entry for an audience pair. Called on every
// document write so readers never see a stale activation longer than one
// round trip.
func (c *ActiveDocuments) Invalidate(ctx context.Context, userType domain.UserType, language domain.Language) error {
	return c.client.Del(ctx, key(userType, language)).Err()
}
