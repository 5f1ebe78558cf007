package repository

import (
	"context"
	"encoding/json"
	"errors"

	"scraper-admin/internal/models"

	"github.com/redis/go-redis/v9"
)

const proxySnapshotKey = "proxy:health:latest"

// ProxySnapshotRepository publishes the latest health batch so the web
// process and the worker share one view.
type ProxySnapshotRepository struct {
	client *redis.Client
}

func NewProxySnapshotRepository(client *redis.Client) *ProxySnapshotRepository {
	return &ProxySnapshotRepository{client: client}
}

func (r *ProxySnapshotRepository) SaveSnapshot(ctx context.Context, snapshot models.ProxySnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, proxySnapshotKey, raw, 0).Err()
}

// LatestSnapshot returns nil without error when nothing was published yet.
func (r *ProxySnapshotRepository) LatestSnapshot(ctx context.Context) (*models.ProxySnapshot, error) {
	raw, err := r.client.Get(ctx, proxySnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.ProxySnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
