package workers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/floorscreen/internal/services"
	"github.com/yoockh/floorscreen/internal/utils"
)

const (
	DefaultCompletionStream = "interview:completed"
	DefaultCompletionGroup  = "completion-workers"
)

// Completer scores a completed session. It must be safe to call more than
// once for the same session.
type Completer interface {
	Complete(ctx context.Context, sessionID string) (*services.CompletionResult, error)
}

// StreamQueue adds completed sessions to a Redis stream.
type StreamQueue struct {
	Redis  redis.UniversalClient
	Stream string
}

func NewStreamQueue(rdb redis.UniversalClient, stream string) *StreamQueue {
	if stream == "" {
		stream = DefaultCompletionStream
	}
	return &StreamQueue{Redis: rdb, Stream: stream}
}

func (q *StreamQueue) Enqueue(ctx context.Context, sessionID string) error {
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: map[string]any{
			"session_id":  sessionID,
			"enqueued_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
}

// CompletionWorkerPool consumes the completion stream with a consumer group
// and runs Complete for each message.
type CompletionWorkerPool struct {
	Redis      redis.UniversalClient
	Completer  Completer
	NumWorkers int
	Logger     *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	Block          time.Duration
	// ClaimIdle is how long a message may stay pending before another
	// consumer takes it over.
	ClaimIdle time.Duration

	wg sync.WaitGroup
}

func (p *CompletionWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Completer == nil {
		return errors.New("CompletionWorkerPool missing dependency: Redis/Completer must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultCompletionStream
	}
	if p.Group == "" {
		p.Group = DefaultCompletionGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Block <= 0 {
		p.Block = 5 * time.Second
	}
	if p.ClaimIdle <= 0 {
		p.ClaimIdle = time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	if err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", p.Group, p.Stream, err)
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runConsumer(ctx, consumer)
		}()
	}
	return nil
}

// Wait blocks until every consumer has returned after ctx is cancelled.
func (p *CompletionWorkerPool) Wait() { p.wg.Wait() }

func (p *CompletionWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.reclaim(ctx, consumer)

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    p.Block,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("completion stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				if p.handleMsg(ctx, msg) {
					_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
				}
			}
		}
	}
}

// reclaim retries messages left pending by a failed or crashed consumer.
func (p *CompletionWorkerPool) reclaim(ctx context.Context, consumer string) {
	msgs, _, err := p.Redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   p.Stream,
		Group:    p.Group,
		Consumer: consumer,
		MinIdle:  p.ClaimIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			p.Logger.WithError(err).Debug("completion reclaim failed")
		}
		return
	}
	for _, msg := range msgs {
		if p.handleMsg(ctx, msg) {
			_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
		}
	}
}

// handleMsg reports whether the message should be acknowledged. Retryable
// failures leave it pending for a later claim.
func (p *CompletionWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) bool {
	sessionID, _ := msg.Values["session_id"].(string)
	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})
	if sessionID == "" {
		log.Warn("completion message without session_id")
		return true
	}

	out, err := p.Completer.Complete(ctx, sessionID)
	if err != nil {
		switch utils.CodeOf(err) {
		case utils.CodeUnavailable, utils.CodeInternal, utils.CodeTimeout:
			log.WithError(err).Error("completion failed; will retry")
			return false
		default:
			log.WithError(err).Warn("completion rejected")
			return true
		}
	}

	log.WithFields(logrus.Fields{
		"score":  out.Result.Score,
		"passed": out.Result.Passed,
	}).Info("session scored")
	return true
}
