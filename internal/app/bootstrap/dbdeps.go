// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/kerjasama/internal/app/system/events"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Events is events.Nop when no broker is configured.
	Events events.Publisher
}
