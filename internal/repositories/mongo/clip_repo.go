package mongo

import (
	"context"
	"time"

	"github.com/yoockh/floorscreen/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ClipRepository interface {
	Insert(ctx context.Context, c *models.AnswerClip) error
	MarkSTT(ctx context.Context, clipID, text string, confidence float64, status, errMsg string, processingMS int64) error
	SetArchivePath(ctx context.Context, clipID, path string) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.AnswerClip, error)
}

type clipRepo struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewClipRepo(db *mongo.Database, ttl time.Duration) ClipRepository {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &clipRepo{col: db.Collection("answer_clips"), ttl: ttl}
}

func (r *clipRepo) Insert(ctx context.Context, c *models.AnswerClip) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = c.CreatedAt.Add(r.ttl)
	}
	if c.STTStatus == "" {
		c.STTStatus = models.ClipPending
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *clipRepo) MarkSTT(ctx context.Context, clipID, text string, confidence float64, status, errMsg string, processingMS int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"clip_id": clipID},
		bson.M{"$set": bson.M{
			"text":           text,
			"stt_confidence": confidence,
			"stt_status":     status,
			"stt_error":      errMsg,
			"processing_ms":  processingMS,
		}},
	)
	return err
}

func (r *clipRepo) SetArchivePath(ctx context.Context, clipID, path string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"clip_id": clipID},
		bson.M{"$set": bson.M{"archive_path": path}},
	)
	return err
}

func (r *clipRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.AnswerClip, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "question_index", Value: 1}, {Key: "created_at", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AnswerClip
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
