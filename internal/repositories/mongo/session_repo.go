package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/models"
	"github.com/yoockh/floorscreen/internal/qualification"
	"github.com/yoockh/floorscreen/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TurnUpdate is one accepted answer, applied only if the stored index still
// equals ExpectedIndex and the session is in progress.
type TurnUpdate struct {
	SessionID     string
	ExpectedIndex int
	NextIndex     int
	Turns         []interview.Turn
	Extracted     qualification.Record
	Complete      bool
	At            time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	ApplyTurn(ctx context.Context, u TurnUpdate) error
	SaveOutcome(ctx context.Context, sessionID string, extracted qualification.Record, outcome models.Outcome) error
	ListByCandidate(ctx context.Context, candidateID string, limit int64) ([]models.InterviewSession, error)
	CountStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("interview_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	if s.Status == "" {
		s.Status = models.SessionInProgress
	}
	if s.Transcript == nil {
		s.Transcript = []interview.Turn{}
	}
	_, err := r.col.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrConflict
	}
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyTurn appends the turns, merges extracted fields and moves the index in
// a single document update. A stale index, a completed session or a missing
// session all surface as utils.ErrConflict.
func (r *sessionRepo) ApplyTurn(ctx context.Context, u TurnUpdate) error {
	if u.At.IsZero() {
		u.At = time.Now().UTC()
	}

	set := bson.M{
		"current_question_index": u.NextIndex,
		"updated_at":             u.At,
	}
	for k, v := range u.Extracted.SetFields("extracted_data") {
		set[k] = v
	}
	if u.Complete {
		set["status"] = models.SessionCompleted
		set["completed_at"] = u.At
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"session_id":             u.SessionID,
			"status":                 models.SessionInProgress,
			"current_question_index": u.ExpectedIndex,
		},
		bson.M{
			"$set":  set,
			"$push": bson.M{"transcript": bson.M{"$each": u.Turns}},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrConflict
	}
	return nil
}

// SaveOutcome stores the final extraction snapshot and score exactly once.
func (r *sessionRepo) SaveOutcome(ctx context.Context, sessionID string, extracted qualification.Record, outcome models.Outcome) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"session_id": sessionID,
			"status":     models.SessionCompleted,
			"outcome":    bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{
			"extracted_data": extracted,
			"outcome":        outcome,
			"updated_at":     outcome.ScoredAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrConflict
	}
	return nil
}

func (r *sessionRepo) ListByCandidate(ctx context.Context, candidateID string, limit int64) ([]models.InterviewSession, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx,
		bson.M{"candidate_id": candidateID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) CountStale(ctx context.Context, olderThan time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"status":     models.SessionInProgress,
		"updated_at": bson.M{"$lt": olderThan},
	})
}
