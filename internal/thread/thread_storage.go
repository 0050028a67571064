package thread

import "context"

// ThreadStorage persists thread trees as versioned documents.
//
// CreateThread assigns ID and sets Version to 1. SaveThread succeeds only if
// the stored version still equals t.Version, then increments t.Version;
// otherwise it returns apperr.ErrVersionConflict and stores nothing.
// GetThreadById returns *apperr.ResourceNotFoundError for unknown ids.
type ThreadStorage interface {
	CreateThread(ctx context.Context, t *Tree) error
	GetThreadById(ctx context.Context, id string) (*Tree, error)
	SaveThread(ctx context.Context, t *Tree) error
}
