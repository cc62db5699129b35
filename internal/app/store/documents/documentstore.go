// internal/app/store/documents/documentstore.go
package documentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/system/txn"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrConflict  = errors.New("document was modified concurrently")
	ErrDuplicate = errors.New("a document with this id already exists")

	// ErrRelatedMissing means a newly linked document was deleted between
	// the caller's check and the write.
	ErrRelatedMissing = errors.New("related document no longer exists")
)

// Precondition is the state a writer read before computing its change.
// A write only succeeds while the stored document still matches it.
type Precondition struct {
	Version int64
	Status  models.Status

	// Related is the stored related_ids. Ids a save adds beyond these are
	// re-checked inside the write.
	Related []string
}

// PreconditionOf captures doc's current version, status and relations.
func PreconditionOf(doc models.Document) Precondition {
	return Precondition{
		Version: doc.Version,
		Status:  doc.Status,
		Related: append([]string(nil), doc.RelatedIDs...),
	}
}

// added returns the ids in next that are not in pre.Related.
func (p Precondition) added(next []string) []string {
	had := make(map[string]bool, len(p.Related))
	for _, id := range p.Related {
		had[id] = true
	}
	var out []string
	for _, id := range next {
		if !had[id] {
			had[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (p Precondition) filter(id string) bson.M {
	return bson.M{"_id": id, "version": p.Version, "status": p.Status}
}

type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, c: db.Collection("documents"), log: log}
}

// Insert stores a new document at version 1.
func (s *Store) Insert(ctx context.Context, doc models.Document) (models.Document, error) {
	doc.Version = 1
	if doc.RelatedIDs == nil {
		doc.RelatedIDs = []string{}
	}
	if doc.ReviewHistory == nil {
		doc.ReviewHistory = []models.ReviewLogEntry{}
	}
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.claimRelated(ctx, doc.RelatedIDs); err != nil {
			return err
		}
		_, err := s.c.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Document{}, ErrDuplicate
		}
		return models.Document{}, err
	}
	return doc, nil
}

// Load returns the document with the given id or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (models.Document, error) {
	var doc models.Document
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Save replaces the stored document with doc if it still matches pre. The
// status change and any new review entries land in a single write. The
// saved document carries the next version. Related ids added since pre must
// still exist, or Save fails with ErrRelatedMissing.
func (s *Store) Save(ctx context.Context, doc models.Document, pre Precondition) (models.Document, error) {
	doc.Version = pre.Version + 1
	write := func(ctx context.Context) error {
		res, err := s.c.ReplaceOne(ctx, pre.filter(doc.ID), doc)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return s.missOrConflict(ctx, doc.ID)
		}
		return nil
	}

	added := pre.added(doc.RelatedIDs)
	var err error
	if len(added) == 0 {
		err = write(ctx)
	} else {
		err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
			if err := s.claimRelated(ctx, added); err != nil {
				return err
			}
			return write(ctx)
		})
	}
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// claimRelated stamps linked_at on every id and fails with
// ErrRelatedMissing unless all of them exist. Inside a transaction the
// stamp is a write on each target, so a concurrent Delete of a target
// conflicts with this write instead of leaving a dangling reference.
func (s *Store) claimRelated(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"linked_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount != int64(len(ids)) {
		return ErrRelatedMissing
	}
	return nil
}

func (s *Store) missOrConflict(ctx context.Context, id string) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// Delete removes the document if it still matches pre and pulls its id from
// every other document's related_ids, in one transaction where the
// deployment supports it. Documents that lose a reference get a new version.
func (s *Store) Delete(ctx context.Context, id string, pre Precondition) (int64, error) {
	var cleaned int64
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, pre.filter(id))
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return s.missOrConflict(ctx, id)
		}
		up, err := s.c.UpdateMany(ctx,
			bson.M{"related_ids": id},
			bson.M{
				"$pull": bson.M{"related_ids": id},
				"$inc":  bson.M{"version": 1},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			})
		if err != nil {
			return err
		}
		cleaned = up.ModifiedCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleaned, nil
}

// KnownLevels returns the level of each id in ids that exists. Ids that do
// not exist are absent from the map.
func (s *Store) KnownLevels(ctx context.Context, ids []string) (map[string]models.Level, error) {
	out := make(map[string]models.Level, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "level": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID    string       `bson:"_id"`
			Level models.Level `bson:"level"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Level
	}
	return out, cur.Err()
}

// GetMany loads the documents with the given ids in no particular order.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return []models.Document{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// ReferencedBy returns the documents whose related_ids contain id, which is
// the reverse side of the relation graph.
func (s *Store) ReferencedBy(ctx context.Context, id string) ([]models.Document, error) {
	return s.find(ctx, bson.M{"related_ids": id}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status models.Status
	Level  models.Level
	Limit  int64
}

// List returns documents newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Document, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Level != "" {
		q["level"] = f.Level
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit))
}

func (s *Store) find(ctx context.Context, q bson.M, opts ...*options.FindOptions) ([]models.Document, error) {
	cur, err := s.c.Find(ctx, q, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
