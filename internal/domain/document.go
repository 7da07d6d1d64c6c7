package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DocumentStatus tracks an ingested source document.
type DocumentStatus string

const (
	DocumentIngested  DocumentStatus = "ingested"
	DocumentSectioned DocumentStatus = "sectioned"
	DocumentProcessed DocumentStatus = "processed"
	DocumentFailed    DocumentStatus = "failed"
)

// Document is an ingested source file. The content hash deduplicates repeated
// uploads of the same bytes.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	Format      string         `json:"format"`
	ContentHash string         `json:"content_hash"`
	SizeBytes   int            `json:"size_bytes"`
	Pages       int            `json:"pages"`
	Status      DocumentStatus `json:"status"`
	IngestedAt  time.Time      `json:"ingested_at"`
}

// NewDocument hashes the raw content and records the ingestion time.
func NewDocument(id, filename, format string, content []byte) (*Document, error) {
	if id == "" {
		return nil, fmt.Errorf("document: id is required")
	}
	if filename == "" {
		return nil, fmt.Errorf("document %s: filename is required", id)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("document %s: content is empty", id)
	}
	return &Document{
		ID:          id,
		Filename:    filename,
		Format:      format,
		ContentHash: HashContent(content),
		SizeBytes:   len(content),
		Status:      DocumentIngested,
		IngestedAt:  time.Now().UTC(),
	}, nil
}

// HashContent is the dedup hash for uploaded bytes.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
