package filestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Fetch when the reference does not resolve to a
// stored file.
var ErrNotFound = errors.New("file not found")

// Store is the contract for binary file storage used for avatars. The
// identity service only holds the opaque ref on the user record; it never
// touches bytes directly.
type Store interface {
	// Store persists the bytes under a key derived from ownerKey and
	// returns an opaque reference for later retrieval.
	Store(ctx context.Context, ownerKey string, data []byte, contentType string) (ref string, err error)

	// Fetch retrieves previously stored bytes by reference.
	Fetch(ctx context.Context, ref string) ([]byte, error)

	// Delete removes a stored file. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref string) error
}
