package auditlog

import (
	"context"
	"net/http"

	"github.com/linnemanlabs/beacon/internal/alert"
)

// Store is the persistence interface for alert records.
//
// Insert must be durable before it returns: it runs on the webhook request
// path and the acknowledgment to the provider is only sent once the record
// exists. Update is called at most once per id, by that id's background
// pipeline run; implementations need only the store's own single-row write
// atomicity, no cross-record coordination.
type Store interface {
	// Insert creates a record from the inbound call and returns its id.
	Insert(ctx context.Context, headers http.Header, p *alert.Payload) (string, error)

	// Update applies a processing outcome with set-once-if-present
	// semantics and stamps processed_at on the first call for the id.
	Update(ctx context.Context, id string, u Update) error

	// Get retrieves a record by id.
	Get(ctx context.Context, id string) (*Record, bool, error)

	// ListRecent returns up to limit record summaries, newest first.
	// A limit <= 0 means no limit: all records are returned.
	ListRecent(ctx context.Context, limit int) ([]Summary, error)
}
