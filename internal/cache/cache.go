package cache

import (
	"context"
	"time"

	"smartshelfx/backend/internal/domain"
)

type ForecastCache interface {
	Get(ctx context.Context, key string) ([]domain.ForecastItem, bool, error)
	Set(ctx context.Context, key string, items []domain.ForecastItem, ttl time.Duration) error
}

type NoopForecastCache struct{}

func (NoopForecastCache) Get(_ context.Context, _ string) ([]domain.ForecastItem, bool, error) {
	return nil, false, nil
}

func (NoopForecastCache) Set(_ context.Context, _ string, _ []domain.ForecastItem, _ time.Duration) error {
	return nil
}
