package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RosterScrapedStream receives one entry per completed scrape
const RosterScrapedStream = "roster.scraped"

// RosterScraped describes a completed scrape run
type RosterScraped struct {
	RunID       string `json:"run_id"`
	RosterURL   string `json:"roster_url"`
	Layout      string `json:"layout"`
	Players     int    `json:"players"`
	Skipped     int    `json:"skipped"`
	Output      string `json:"output,omitempty"`
	CompletedAt string `json:"completed_at"`
}

// RedisPublisher publishes events to Redis streams
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis stream publisher
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisPublisher{
		client: client,
	}, nil
}

// NewRedisStreamPublisher creates a publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		client: client,
	}
}

// Close closes the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// PublishRosterScraped announces a completed scrape
func (rp *RedisPublisher) PublishRosterScraped(ctx context.Context, event RosterScraped) error {
	return rp.publish(ctx, RosterScrapedStream, event)
}

func (rp *RedisPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
