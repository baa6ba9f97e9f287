package models

import (
	"time"
)

// UploadStatus is the ingestion state of an uploaded file
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusFailed     UploadStatus = "FAILED"
	UploadStatusSuccess    UploadStatus = "SUCCESS"
)

// Valid reports whether s is one of the known statuses
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusPending, UploadStatusProcessing, UploadStatusFailed, UploadStatusSuccess:
		return true
	}
	return false
}

// ParseUploadStatus returns the stored value unchanged, or PENDING when it is empty
func ParseUploadStatus(raw string) UploadStatus {
	if raw == "" {
		return UploadStatusPending
	}
	return UploadStatus(raw)
}

// File represents an uploaded document owned by a user
type File struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Key          string       `json:"key"`
	URL          string       `json:"url"`
	UserID       string       `json:"userId"`
	UploadStatus UploadStatus `json:"uploadStatus"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
