package storage

import "context"

// Store persists media bytes and hands back a public URL. The database only
// ever stores the returned URL.
type Store interface {
	// Save stores the payload under the given key and returns its public URL.
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// ExtensionFor maps a content type to a file extension for object keys.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// AllowedContentType reports whether the content type may be uploaded.
func AllowedContentType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
