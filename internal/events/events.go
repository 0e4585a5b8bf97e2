package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published per session.
const (
	TypeTurn      = "turn"
	TypeCompleted = "completed"
	TypeScored    = "scored"
)

// Event is the JSON payload forwarded to dashboard listeners.
type Event struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	CandidateID   string    `json:"candidate_id,omitempty"`
	QuestionIndex int       `json:"question_index"`
	QuestionID    string    `json:"question_id,omitempty"`
	Answer        string    `json:"answer,omitempty"`
	Reply         string    `json:"reply,omitempty"`
	Complete      bool      `json:"complete"`
	Score         *int      `json:"score,omitempty"`
	Passed        *bool     `json:"passed,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	At            time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Channel is the pub/sub channel carrying a session's events.
func Channel(sessionID string) string { return "interview:" + sessionID + ":events" }

type RedisPublisher struct {
	rdb redis.UniversalClient
}

func NewRedisPublisher(rdb redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel(e.SessionID), b).Err()
}

// Subscribe opens a subscription to one session's channel. The caller closes it.
func (p *RedisPublisher) Subscribe(ctx context.Context, sessionID string) *redis.PubSub {
	return p.rdb.Subscribe(ctx, Channel(sessionID))
}
