// Package storage keeps atlases built by the HTTP server so clients can
// fetch them again by id.
//
// [MemoryStore] serves single-process deployments and tests; [MongoStore]
// persists records in MongoDB.
package storage

import (
	"context"
	"time"

	"github.com/matzehuels/sheetpack/pkg/export"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// Record is one stored atlas.
type Record struct {
	ID          string              `json:"id" bson:"_id"`
	Atlas       export.Atlas        `json:"atlas" bson:"atlas"`
	Constraints packing.Constraints `json:"constraints" bson:"constraints"`
	Trials      int                 `json:"trials" bson:"trials"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

// Store saves and loads atlas records.
type Store interface {
	// Save stores rec. Saving an id twice fails with ALREADY_EXISTS (errors.ErrCodeConflict).
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close releases the backend.
	Close(ctx context.Context) error
}
