// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth     = "auth"
	CategoryAdmin    = "admin"
	CategoryWorkflow = "workflow"
)

// Auth event types
const (
	EventLoginSuccess = "login_success"
	EventLoginFailed  = "login_failed"
	EventLogout       = "logout"
)

// Admin event types
const (
	EventUserCreated = "user_created"
)

// Workflow event types. Rejected actions are recorded too, with
// Success=false and the error kind as FailureReason.
const (
	EventAjuanCreated           = "ajuan_created"
	EventAjuanEdited            = "ajuan_edited"
	EventAjuanSubmitted         = "ajuan_submitted"
	EventAjuanApproved          = "ajuan_approved"
	EventAjuanRevisionRequested = "ajuan_revision_requested"
	EventAjuanResubmitted       = "ajuan_resubmitted"
	EventAjuanCompleted         = "ajuan_completed"
	EventAjuanArchived          = "ajuan_archived"
	EventAjuanDeleted           = "ajuan_deleted"
	EventAjuanActionRejected    = "ajuan_action_rejected"

	EventActivityAdded   = "activity_added"
	EventActivityUpdated = "activity_updated"
	EventActivityRemoved = "activity_removed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	ActorID   string `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	ActorRole string `bson:"actor_role,omitempty" json:"actorRole,omitempty"`

	// What
	DocumentID string `bson:"document_id,omitempty" json:"documentId,omitempty"`
	FromStatus string `bson:"from_status,omitempty" json:"fromStatus,omitempty"`
	ToStatus   string `bson:"to_status,omitempty" json:"toStatus,omitempty"`

	// Context
	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	DocumentID string
	ActorID    string
	Category   string
	EventType  string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int64
	Offset     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) bson() bson.M {
	query := bson.M{}
	if f.DocumentID != "" {
		query["document_id"] = f.DocumentID
	}
	if f.ActorID != "" {
		query["actor_id"] = f.ActorID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// GetByDocument retrieves the audit trail of one ajuan.
func (s *Store) GetByDocument(ctx context.Context, documentID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{DocumentID: documentID, Limit: limit})
}
