package scheduler

import (
	"context"
	"fmt"

	"crmhub_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// Dispatcher is what the webhook handlers need: fire-and-forget enqueue
// of the two background jobs.
type Dispatcher interface {
	DispatchExport(ctx context.Context, payload ExportReconcilePayload) error
	DispatchMarketOrder(ctx context.Context, payload MarketOrderPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// DispatchExport enqueues one reconciliation export run. Only one export
// is useful at a time, so repeats of the same day collapse via task id
// uniqueness handled by the sink's request dedupe, not here.
func (c *Client) DispatchExport(ctx context.Context, payload ExportReconcilePayload) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler not configured")
	}

	task, err := NewExportReconcileTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func (c *Client) DispatchMarketOrder(ctx context.Context, payload MarketOrderPayload) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler not configured")
	}

	task, err := NewMarketOrderTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
