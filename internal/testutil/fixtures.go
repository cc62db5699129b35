// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active account. The password hash is a placeholder;
// use userstore.Create when a test needs to sign in.
func (f *Fixtures) CreateUser(ctx context.Context, username string, role models.Role) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		FullName:     username,
		PasswordHash: "-",
		Role:         role,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// NewDocument returns an unsaved DRAFT owned by owner.
func NewDocument(level models.Level, owner models.Role, title string) models.Document {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.Document{
		ID:            uuid.NewString(),
		Level:         level,
		Status:        models.StatusDraft,
		CreatedByRole: owner,
		RelatedIDs:    []string{},
		ReviewHistory: []models.ReviewLogEntry{},
		Details:       models.Details{Title: title, Scope: []string{}},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CreateDocument inserts doc as-is into the documents collection.
func (f *Fixtures) CreateDocument(ctx context.Context, doc models.Document) models.Document {
	f.t.Helper()
	if doc.Version == 0 {
		doc.Version = 1
	}
	if _, err := f.db.Collection("documents").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}
