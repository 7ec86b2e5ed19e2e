package domain

import "context"

// MediaStore abstracts the external object store that serves uploaded
// images. The production implementation talks to an S3-compatible service;
// tests substitute an in-memory fake.
type MediaStore interface {
	// Upload stores data under key with the given content type and returns
	// the public URL the object is reachable at.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}
