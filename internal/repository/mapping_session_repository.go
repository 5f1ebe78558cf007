package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"scraper-admin/internal/models"
	"scraper-admin/internal/service"

	"github.com/redis/go-redis/v9"
)

const mappingSessionPrefix = "mapping:session:"

// RedisMappingSessionStore keeps form sessions in Redis; every save refreshes the TTL.
type RedisMappingSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMappingSessionStore(client *redis.Client, ttl time.Duration) *RedisMappingSessionStore {
	return &RedisMappingSessionStore{client: client, ttl: ttl}
}

func (s *RedisMappingSessionStore) Save(ctx context.Context, session *models.MappingSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode mapping session: %w", err)
	}
	return s.client.Set(ctx, mappingSessionPrefix+session.SessionCode, raw, s.ttl).Err()
}

func (s *RedisMappingSessionStore) Get(ctx context.Context, code string) (*models.MappingSession, error) {
	raw, err := s.client.Get(ctx, mappingSessionPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, service.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.MappingSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode mapping session: %w", err)
	}
	return &session, nil
}

func (s *RedisMappingSessionStore) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, mappingSessionPrefix+code).Err()
}

// MemoryMappingSessionStore is used when Redis is unavailable. Sessions are
// copied in and out so callers never share state.
type MemoryMappingSessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryMappingSessionStore() *MemoryMappingSessionStore {
	return &MemoryMappingSessionStore{sessions: make(map[string][]byte)}
}

func (s *MemoryMappingSessionStore) Save(_ context.Context, session *models.MappingSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.SessionCode] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryMappingSessionStore) Get(_ context.Context, code string) (*models.MappingSession, error) {
	s.mu.RLock()
	raw, ok := s.sessions[code]
	s.mu.RUnlock()
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	var session models.MappingSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemoryMappingSessionStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	delete(s.sessions, code)
	s.mu.Unlock()
	return nil
}
