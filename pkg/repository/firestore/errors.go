package firestore

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound is returned when a requested document does not exist
	ErrNotFound = goerr.New("not found")

	// ErrVectorSearchUnavailable is returned when the backend rejects a
	// vector query because the required index has not been provisioned.
	// Callers surface this distinctly so operators get an actionable
	// message instead of a generic search failure.
	ErrVectorSearchUnavailable = goerr.New("vector search index does not exist")
)
