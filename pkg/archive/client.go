package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client provides namespaced Redis operations for the program archive.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient creates a new archive client for the specified namespace.
// Returns an error if namespace is empty.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
	}, nil
}

// NewClientFromURL creates a client from a redis:// URL.
func NewClientFromURL(url, namespace string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid archive URL: %w", err)
	}
	return NewClient(opts, namespace)
}

// Namespace returns the namespace every key is scoped to.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// maxSaveAttempts bounds how often SaveProgram retries when another writer
// touches the same digest between WATCH and EXEC.
const maxSaveAttempts = 5

// SaveProgram archives a program and publishes an event for it.
// If a program with the same digest is already archived, nothing is written
// and the existing record is returned with created=false.
//
// The digest claim, the program hash and the index entry are committed in one
// WATCH/MULTI transaction, so a digest is never visible without its program.
func (c *Client) SaveProgram(ctx context.Context, p *Program) (stored *Program, created bool, err error) {
	if err := p.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid program: %w", err)
	}

	hash, err := ProgramToHash(p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to serialize program: %w", err)
	}

	digestKey := DigestKey(c.namespace, p.Digest)
	var existingID string
	save := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, digestKey).Result()
		if err == nil {
			existingID = id
			return nil
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read digest index: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, digestKey, p.ID, 0)
			pipe.HSet(ctx, ProgramKey(c.namespace, p.ID), hash)
			pipe.ZAdd(ctx, ProgramsIndexKey(c.namespace), redis.Z{
				Score:  float64(p.CreatedAtMs),
				Member: p.ID,
			})
			return nil
		})
		return err
	}

	for range maxSaveAttempts {
		existingID = ""
		err := c.rdb.Watch(ctx, save, digestKey)
		if errors.Is(err, redis.TxFailedErr) {
			// another writer committed this digest first; re-read it
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to write program to Redis: %w", err)
		}

		if existingID != "" {
			existing, err := c.GetProgram(ctx, existingID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to read archived program %s: %w", existingID, err)
			}
			return existing, false, nil
		}

		if err := c.publish(ctx, p); err != nil {
			return nil, false, err
		}
		return p, true, nil
	}

	return nil, false, fmt.Errorf("failed to write program to Redis: digest %s still contended after %d attempts", p.Digest, maxSaveAttempts)
}

// publish announces a stored program. Events carry the metadata only;
// subscribers fetch the text on demand.
func (c *Client) publish(ctx context.Context, p *Program) error {
	event := *p
	event.Knitout = ""
	eventJSON, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("failed to marshal program for event: %w", err)
	}
	if err := c.rdb.Publish(ctx, ProgramEventsChannel(c.namespace), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish program event: %w", err)
	}
	return nil
}

// GetProgram retrieves a program by ID.
// Returns (nil, redis.Nil) if the program doesn't exist.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetProgram(ctx context.Context, programID string) (*Program, error) {
	hashData, err := c.rdb.HGetAll(ctx, ProgramKey(c.namespace, programID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read program from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	program, err := HashToProgram(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize program: %w", err)
	}

	return program, nil
}

// FindByDigest retrieves the program whose knitout has the given digest.
// Returns (nil, redis.Nil) if no such program is archived.
func (c *Client) FindByDigest(ctx context.Context, digest string) (*Program, error) {
	id, err := c.rdb.Get(ctx, DigestKey(c.namespace, digest)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read digest index: %w", err)
	}
	return c.GetProgram(ctx, id)
}

// ListPrograms returns programs created within [sinceMs, untilMs], oldest
// first. A zero bound leaves that end of the range open.
func (c *Client) ListPrograms(ctx context.Context, sinceMs, untilMs int64) ([]*Program, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if sinceMs > 0 {
		rng.Min = strconv.FormatInt(sinceMs, 10)
	}
	if untilMs > 0 {
		rng.Max = strconv.FormatInt(untilMs, 10)
	}

	ids, err := c.rdb.ZRangeByScore(ctx, ProgramsIndexKey(c.namespace), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read program index: %w", err)
	}

	programs := make([]*Program, 0, len(ids))
	for _, id := range ids {
		p, err := c.GetProgram(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// index entry outlived its hash
				continue
			}
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// ScanPrograms returns the IDs of all programs whose ID starts with prefix,
// sorted. Uses SCAN so large archives do not block the server.
func (c *Client) ScanPrograms(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := ProgramKeyPrefix(c.namespace)
	iter := c.rdb.Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan programs: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

// Subscription represents an active Pub/Sub subscription to program events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Program
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of program events. Event programs carry no
// knitout text. The channel is closed when the subscription is closed or
// the context is cancelled.
func (s *Subscription) Events() <-chan *Program {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeProgramEvents subscribes to program archive events.
// Events are delivered on a buffered channel (size 10); Redis Pub/Sub is
// at-most-once, so a slow subscriber may miss events.
func (c *Client) SubscribeProgramEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, ProgramEventsChannel(c.namespace))

	// Wait for the subscription to be confirmed so no event published after
	// this call returns is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to program events: %w", err)
	}

	eventsChan := make(chan *Program, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var program Program
				if err := json.Unmarshal([]byte(msg.Payload), &program); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal program event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &program:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
