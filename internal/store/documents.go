package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lexquest/lexquiz/internal/domain"
)

const documentsFile = "documents.json"

// DocumentStore persists ingested-document records in a single JSON file.
// The content hash index is what the ingest path uses to skip documents it
// has already processed.
type DocumentStore struct {
	path string

	mu     sync.RWMutex
	byID   map[string]*domain.Document
	byHash map[string]*domain.Document
}

func NewDocumentStore(base string) (*DocumentStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create document store dir: %w", err)
	}
	s := &DocumentStore{
		path:   filepath.Join(base, documentsFile),
		byID:   make(map[string]*domain.Document),
		byHash: make(map[string]*domain.Document),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save upserts a document and persists the file.
func (s *DocumentStore) Save(doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[doc.ID] = doc
	if doc.ContentHash != "" {
		s.byHash[doc.ContentHash] = doc
	}
	return s.persist()
}

func (s *DocumentStore) FindByID(id string) *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// FindByHash returns the previously ingested document with this content
// hash, or nil.
func (s *DocumentStore) FindByHash(hash string) *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byHash[hash]
}

func (s *DocumentStore) FindAll() []*domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Document, 0, len(s.byID))
	for _, doc := range s.byID {
		out = append(out, doc)
	}
	return out
}

func (s *DocumentStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	if doc.ContentHash != "" {
		delete(s.byHash, doc.ContentHash)
	}
	return s.persist()
}

type documentsPayload struct {
	Version   string             `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
	Documents []*domain.Document `json:"documents"`
}

func (s *DocumentStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	var payload documentsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode documents: %w", err)
	}
	for _, doc := range payload.Documents {
		s.byID[doc.ID] = doc
		if doc.ContentHash != "" {
			s.byHash[doc.ContentHash] = doc
		}
	}
	return nil
}

func (s *DocumentStore) persist() error {
	payload := documentsPayload{
		Version:   "2.0",
		UpdatedAt: time.Now().UTC(),
		Documents: make([]*domain.Document, 0, len(s.byID)),
	}
	for _, doc := range s.byID {
		payload.Documents = append(payload.Documents, doc)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	return nil
}
