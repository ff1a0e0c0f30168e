package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Replicator defines the optional remote replication boundary. Replication
// is last-write-wins: a published document replaces the remote copy
// wholesale, and subscribers replace their local copy wholesale on every
// change notification. No field-level merge is attempted.
type Replicator interface {
	// Publish replaces the remote copy of a receipt and notifies
	// subscribers.
	Publish(ctx context.Context, id string, r *Receipt) error

	// PublishPartial updates a single path in the remote copy, used for
	// payment-only updates to limit write scope. Supported paths are
	// "payments.<person>".
	PublishPartial(ctx context.Context, id, path string, value float64) error

	// Subscribe registers a callback invoked with the full remote document
	// on every change. The returned function cancels the subscription.
	Subscribe(ctx context.Context, id string, onChange func(*Receipt)) (func(), error)

	// Close releases the replicator's resources.
	Close() error
}

// NoopReplicator is used when no remote store is configured. Every operation
// succeeds without doing anything.
type NoopReplicator struct{}

func (NoopReplicator) Publish(context.Context, string, *Receipt) error { return nil }

func (NoopReplicator) PublishPartial(context.Context, string, string, float64) error { return nil }

func (NoopReplicator) Subscribe(context.Context, string, func(*Receipt)) (func(), error) {
	return func() {}, nil
}

func (NoopReplicator) Close() error { return nil }

// RedisReplicator replicates receipts through a shared Redis: the document
// lives under its store key, and change notifications travel over a pub/sub
// channel per receipt.
type RedisReplicator struct {
	client *redis.Client
}

// NewRedisReplicator connects to the given Redis URL and verifies the
// connection with a ping.
func NewRedisReplicator(redisURL string) (*RedisReplicator, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &TransportError{Op: "connect", Err: err}
	}
	return &RedisReplicator{client: client}, nil
}

func replicationKey(id string) string {
	return keyPrefix + id
}

func replicationChannel(id string) string {
	return "receipt-updates:" + id
}

// Publish stores the full document and notifies subscribers. Last write
// wins; a concurrent publish from another participant is silently replaced.
func (p *RedisReplicator) Publish(ctx context.Context, id string, r *Receipt) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	if err := p.client.Set(ctx, replicationKey(id), data, 0).Err(); err != nil {
		return &TransportError{Op: "publish", Err: err}
	}
	if err := p.client.Publish(ctx, replicationChannel(id), data).Err(); err != nil {
		return &TransportError{Op: "notify", Err: err}
	}
	return nil
}

// PublishPartial rewrites a single payments entry in the remote copy. The
// read-modify-write is not atomic; that matches the accepted last-write-wins
// model.
func (p *RedisReplicator) PublishPartial(ctx context.Context, id, path string, value float64) error {
	person, ok := strings.CutPrefix(path, "payments.")
	if !ok || person == "" {
		return fmt.Errorf("unsupported partial path: %s", path)
	}

	data, err := p.client.Get(ctx, replicationKey(id)).Bytes()
	if err == redis.Nil {
		return &TransportError{Op: "publish-partial", Err: fmt.Errorf("remote copy missing for %s", id)}
	}
	if err != nil {
		return &TransportError{Op: "publish-partial", Err: err}
	}

	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("unmarshaling remote receipt: %w", err)
	}
	if r.Payments == nil {
		r.Payments = make(map[string]float64)
	}
	r.Payments[person] = value
	return p.Publish(ctx, id, &r)
}

// Subscribe delivers every remote change to onChange until the returned
// cancel function is called or ctx is done.
func (p *RedisReplicator) Subscribe(ctx context.Context, id string, onChange func(*Receipt)) (func(), error) {
	pubsub := p.client.Subscribe(ctx, replicationChannel(id))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, &TransportError{Op: "subscribe", Err: err}
	}

	go func() {
		for msg := range pubsub.Channel() {
			var r Receipt
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
				slog.Warn("Ignoring malformed replication message", "receipt_id", id, "error", err)
				continue
			}
			onChange(&r)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			slog.Warn("Closing subscription", "receipt_id", id, "error", err)
		}
	}, nil
}

// Close closes the underlying Redis client.
func (p *RedisReplicator) Close() error {
	return p.client.Close()
}
