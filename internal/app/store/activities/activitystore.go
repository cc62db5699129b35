// internal/app/store/activities/activitystore.go
package activitystore

import (
	"context"
	"errors"

	"github.com/dalemusser/kerjasama/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("activity not found")
	ErrDuplicate = errors.New("an activity with this id already exists")
)

// Store keeps the activity log of completed agreements. Every lookup is
// scoped by document id so an activity is never reachable through another
// document's URL.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

func (s *Store) Insert(ctx context.Context, a models.Activity) (models.Activity, error) {
	if a.Files == nil {
		a.Files = []models.ActivityFile{}
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Activity{}, ErrDuplicate
		}
		return models.Activity{}, err
	}
	return a, nil
}

func (s *Store) Get(ctx context.Context, docID, id string) (models.Activity, error) {
	var a models.Activity
	err := s.c.FindOne(ctx, bson.M{"_id": id, "document_id": docID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Activity{}, ErrNotFound
	}
	if err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// ListByDocument returns docID's activities by date, oldest first. Entries
// on the same date keep the order they were logged in.
func (s *Store) ListByDocument(ctx context.Context, docID string) ([]models.Activity, error) {
	cur, err := s.c.Find(ctx, bson.M{"document_id": docID}, options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace stores a over the existing activity with the same id and document.
func (s *Store) Replace(ctx context.Context, a models.Activity) (models.Activity, error) {
	if a.Files == nil {
		a.Files = []models.ActivityFile{}
	}
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": a.ID, "document_id": a.DocumentID}, a)
	if err != nil {
		return models.Activity{}, err
	}
	if res.MatchedCount == 0 {
		return models.Activity{}, ErrNotFound
	}
	return a, nil
}

func (s *Store) Delete(ctx context.Context, docID, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "document_id": docID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByDocument removes a document's whole log and returns how many
// entries went with it.
func (s *Store) DeleteByDocument(ctx context.Context, docID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"document_id": docID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
