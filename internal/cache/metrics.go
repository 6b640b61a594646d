package cache

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var redisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedsync_redis_errors_total",
	Help: "Redis command failures by command, cache misses excluded",
}, []string{"command"})

// metricsHook counts failed Redis commands
type metricsHook struct{}

func (metricsHook) BeforeProcess(ctx context.Context, _ redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (metricsHook) AfterProcess(_ context.Context, cmd redis.Cmder) error {
	if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
		redisErrors.WithLabelValues(cmd.Name()).Inc()
	}
	return nil
}

func (metricsHook) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (metricsHook) AfterProcessPipeline(_ context.Context, cmds []redis.Cmder) error {
	for _, cmd := range cmds {
		if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
			redisErrors.WithLabelValues("pipeline").Inc()
			break
		}
	}
	return nil
}
