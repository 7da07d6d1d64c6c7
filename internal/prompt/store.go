package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lexquest/lexquiz/internal/domain"
)

// Store manages versioned system prompts on disk. Layout:
//
//	<base>/flashcard/v1.0.md
//	<base>/flashcard/metadata.json
//	<base>/true_false/...
//
// metadata.json records the active version and per-version descriptions.
// A store with an empty base path serves only the built-in defaults.
type Store struct {
	base string

	mu    sync.Mutex
	cache map[string]string
}

// typeDir maps question types to their prompt directory names.
func typeDir(qt domain.QuestionType) string {
	switch qt {
	case domain.TypeFlashcard:
		return "flashcard"
	case domain.TypeTrueFalse:
		return "true_false"
	case domain.TypeMultipleChoice:
		return "multiple_choice"
	case domain.TypeCloze:
		return "cloze"
	}
	return string(qt)
}

type storeMetadata struct {
	ActiveVersion string                     `json:"active_version,omitempty"`
	UpdatedAt     string                     `json:"updated_at,omitempty"`
	Versions      map[string]versionMetadata `json:"versions,omitempty"`
}

type versionMetadata struct {
	CreatedAt   string `json:"created_at"`
	Description string `json:"description,omitempty"`
}

// NewStore builds a store rooted at base. base may be empty.
func NewStore(base string) *Store {
	return &Store{base: base, cache: make(map[string]string)}
}

// SystemPrompt returns the system prompt for a question type. version ""
// selects the active version; when nothing exists on disk the built-in
// default is returned.
func (s *Store) SystemPrompt(qt domain.QuestionType, version string) (string, error) {
	key := string(qt) + ":" + version
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	content, err := s.load(qt, version)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[key] = content
	s.mu.Unlock()
	return content, nil
}

func (s *Store) load(qt domain.QuestionType, version string) (string, error) {
	if s.base == "" {
		return defaultSystemPrompt(qt), nil
	}
	dir := filepath.Join(s.base, typeDir(qt))
	if version == "" {
		version = s.activeVersion(dir)
	}
	if version == "" {
		return defaultSystemPrompt(qt), nil
	}
	content, err := os.ReadFile(filepath.Join(dir, "v"+version+".md"))
	if err != nil {
		return "", fmt.Errorf("load prompt %s v%s: %w", qt, version, err)
	}
	return string(content), nil
}

// ActiveVersion returns the active version for a type, empty when the type
// has no prompts on disk.
func (s *Store) ActiveVersion(qt domain.QuestionType) string {
	if s.base == "" {
		return ""
	}
	return s.activeVersion(filepath.Join(s.base, typeDir(qt)))
}

func (s *Store) activeVersion(dir string) string {
	if meta, err := readMetadata(dir); err == nil && meta.ActiveVersion != "" {
		return meta.ActiveVersion
	}
	versions := listVersions(dir)
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}

// Versions lists the available versions of a type's prompt, oldest first.
func (s *Store) Versions(qt domain.QuestionType) []string {
	if s.base == "" {
		return nil
	}
	return listVersions(filepath.Join(s.base, typeDir(qt)))
}

// SaveVersion writes a new prompt version and updates metadata. setActive
// promotes it to the active version.
func (s *Store) SaveVersion(qt domain.QuestionType, version, content, description string, setActive bool) error {
	if s.base == "" {
		return fmt.Errorf("prompt store has no base directory")
	}
	if version == "" {
		return fmt.Errorf("prompt version is required")
	}
	if issues := Lint(content); len(issues) > 0 {
		return fmt.Errorf("prompt content rejected: %s", strings.Join(issues, "; "))
	}
	dir := filepath.Join(s.base, typeDir(qt))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prompt dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "v"+version+".md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write prompt v%s: %w", version, err)
	}

	meta, err := readMetadata(dir)
	if err != nil {
		meta = &storeMetadata{}
	}
	if meta.Versions == nil {
		meta.Versions = make(map[string]versionMetadata)
	}
	meta.Versions[version] = versionMetadata{
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Description: description,
	}
	if setActive {
		meta.ActiveVersion = version
	}
	if err := writeMetadata(dir, meta); err != nil {
		return err
	}
	s.invalidate(qt)
	return nil
}

// SetActiveVersion switches the active version of a type's prompt.
func (s *Store) SetActiveVersion(qt domain.QuestionType, version string) error {
	if s.base == "" {
		return fmt.Errorf("prompt store has no base directory")
	}
	dir := filepath.Join(s.base, typeDir(qt))
	if _, err := os.Stat(filepath.Join(dir, "v"+version+".md")); err != nil {
		return fmt.Errorf("version %s not found for %s: %w", version, qt, err)
	}
	meta, err := readMetadata(dir)
	if err != nil {
		meta = &storeMetadata{}
	}
	meta.ActiveVersion = version
	if err := writeMetadata(dir, meta); err != nil {
		return err
	}
	s.invalidate(qt)
	return nil
}

func (s *Store) invalidate(qt domain.QuestionType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := string(qt) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
}

// Lint checks prompt content for the properties generation depends on.
func Lint(content string) []string {
	var issues []string
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return []string{"prompt is empty"}
	}
	if len(trimmed) < 100 {
		issues = append(issues, "prompt is shorter than 100 characters")
	}
	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "json") {
		issues = append(issues, "prompt does not request JSON output")
	}
	for _, concept := range []string{"pregunta", "respuesta"} {
		if !strings.Contains(lower, concept) {
			issues = append(issues, fmt.Sprintf("prompt does not mention %q", concept))
		}
	}
	return issues
}

func readMetadata(dir string) (*storeMetadata, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta storeMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode prompt metadata: %w", err)
	}
	return &meta, nil
}

func writeMetadata(dir string, meta *storeMetadata) error {
	meta.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompt metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), encoded, 0o644); err != nil {
		return fmt.Errorf("write prompt metadata: %w", err)
	}
	return nil
}

// listVersions returns versions sorted by their numeric segments.
func listVersions(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "v") || !strings.HasSuffix(name, ".md") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(name, "v"), ".md"))
	}
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
	return versions
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var ai, bi int
		if i < len(as) {
			ai, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bi, _ = strconv.Atoi(bs[i])
		}
		if ai != bi {
			return ai - bi
		}
	}
	return 0
}
