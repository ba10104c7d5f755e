package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// ErrQRSessionNotFound indicates no active session exists for the activity.
var ErrQRSessionNotFound = errors.New("qr session not found")

// QRSessionStore keeps the single active QR session per activity. Sessions
// live in Redis so they survive restarts and are shared across instances.
type QRSessionStore interface {
	// Put stores the session, replacing any prior one (latest wins). The
	// record is retained slightly past expiry so stale scans can still be
	// told apart from never-issued tokens.
	Put(ctx context.Context, session models.QRSession, retention time.Duration) error
	Get(ctx context.Context, activityID uint) (models.QRSession, error)
}

type redisQRSessionStore struct {
	client *redis.Client
}

// NewQRSessionStore builds a Redis-backed session store.
func NewQRSessionStore(client *redis.Client) QRSessionStore {
	return &redisQRSessionStore{client: client}
}

func qrSessionKey(activityID uint) string {
	return fmt.Sprintf("qr:activity:%d", activityID)
}

func (s *redisQRSessionStore) Put(ctx context.Context, session models.QRSession, retention time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode qr session: %w", err)
	}

	if err := s.client.Set(ctx, qrSessionKey(session.ActivityID), payload, retention).Err(); err != nil {
		return fmt.Errorf("failed to store qr session: %w", err)
	}

	return nil
}

func (s *redisQRSessionStore) Get(ctx context.Context, activityID uint) (models.QRSession, error) {
	payload, err := s.client.Get(ctx, qrSessionKey(activityID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.QRSession{}, ErrQRSessionNotFound
		}
		return models.QRSession{}, fmt.Errorf("failed to load qr session: %w", err)
	}

	var session models.QRSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return models.QRSession{}, fmt.Errorf("failed to decode qr session: %w", err)
	}

	return session, nil
}
