// Package store persists processed traces for the serve mode: the raw
// document together with its built layout, so a trace uploaded once can
// be re-viewed without re-running preprocessing.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// StoredTrace is one persisted trace with its preprocessing output.
// LaneCount and TaskCount are denormalized at save time so listings
// never have to load the payload fields.
type StoredTrace struct {
	ID        string           `json:"id" bson:"_id"`
	Name      string           `json:"name" bson:"name"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
	LaneCount int              `json:"lane_count" bson:"lane_count"`
	TaskCount int              `json:"task_count" bson:"task_count"`
	Document  *trace.Document  `json:"document" bson:"document"`
	Layout    *timeline.Layout `json:"layout,omitempty" bson:"layout,omitempty"`
}

// denormalize fills the counts from the document.
func (st *StoredTrace) denormalize() {
	st.LaneCount, st.TaskCount = 0, 0
	if st.Document == nil {
		return
	}
	st.LaneCount = len(st.Document.Threads)
	for _, th := range st.Document.Threads {
		st.TaskCount += len(th.Tasks)
	}
}

// Summary is the listing view of a stored trace, without the payloads.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	LaneCount int       `json:"lane_count" bson:"lane_count"`
	TaskCount int       `json:"task_count" bson:"task_count"`
}

// Store is the trace persistence interface. Implementations: MemoryStore
// for development and tests, MongoStore for deployments.
type Store interface {
	// Save persists a trace, replacing any existing trace with the
	// same id.
	Save(ctx context.Context, st *StoredTrace) error

	// Get returns the trace with the given id.
	Get(ctx context.Context, id string) (*StoredTrace, error)

	// List returns summaries of all stored traces, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a trace. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

// summarize builds the listing view of a stored trace.
func summarize(st *StoredTrace) Summary {
	return Summary{
		ID:        st.ID,
		Name:      st.Name,
		CreatedAt: st.CreatedAt,
		LaneCount: st.LaneCount,
		TaskCount: st.TaskCount,
	}
}
