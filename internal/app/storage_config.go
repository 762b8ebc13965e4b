package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/huddle/internal/storage"
)

const (
	StorageBackendFilesystem = "filesystem"
	StorageBackendS3         = "s3"
)

// BackendName returns the normalised storage backend, defaulting to filesystem.
func (c StorageConfig) BackendName() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return StorageBackendFilesystem
	}
	return backend
}

// S3ClientConfig converts StorageConfig into storage.S3Config.
func (c StorageConfig) S3ClientConfig() storage.S3Config {
	return storage.S3Config{
		Endpoint:      strings.TrimSpace(c.S3.Endpoint),
		AccessKey:     strings.TrimSpace(c.S3.AccessKey),
		SecretKey:     c.S3.SecretKey,
		Bucket:        strings.TrimSpace(c.Bucket),
		Region:        strings.TrimSpace(c.S3.Region),
		UseSSL:        c.S3.UseSSL,
		PublicBaseURL: strings.TrimSpace(c.S3.PublicBaseURL),
	}
}

// Validate reports configuration that cannot produce a working backend.
func (c StorageConfig) Validate() error {
	switch c.BackendName() {
	case StorageBackendFilesystem:
		if strings.TrimSpace(c.Filesystem.Root) == "" {
			return fmt.Errorf("storage: filesystem.root is required")
		}
	case StorageBackendS3:
		if strings.TrimSpace(c.S3.Endpoint) == "" || strings.TrimSpace(c.Bucket) == "" {
			return fmt.Errorf("storage: s3.endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("storage: unsupported backend %q", c.Backend)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("storage: max_upload_bytes must not be negative")
	}
	return nil
}
