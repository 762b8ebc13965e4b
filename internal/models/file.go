package models

// FileRecord describes an object held in object storage. It is assembled from
// storage listings and never persisted in the relational store.
type FileRecord struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	Name        string `json:"name"`
	Size        *int64 `json:"size,omitempty"`
	PublicURL   string `json:"public_url"`
}
