// Package blob abstracts raw file storage away from the document lifecycle.
// The engine only ever holds opaque handles; serving file content back to
// clients is out of scope here.
package blob

import "context"

//go:generate mockgen -source=blob.go -destination=mocks/store_mock.go -package=mocks

// Store persists raw document bytes. Save returns an opaque handle that is
// stable for the life of the blob; Delete of an unknown handle is an error.
type Store interface {
	Save(ctx context.Context, filename string, data []byte) (handle string, err error)
	Delete(ctx context.Context, handle string) error
	Size(ctx context.Context, handle string) (int64, error)
}
