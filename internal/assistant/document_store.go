package assistant

import (
	"strings"
	"sync"
	"time"
)

// DocumentRecord is the single reference document held by a session.
type DocumentRecord struct {
	Name       string    `json:"name"`
	Body       string    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Preview returns the first n runes of the body.
func (d DocumentRecord) Preview(n int) string {
	return truncateRunes(d.Body, n)
}

// Extractor turns uploaded bytes into plain text.
type Extractor interface {
	Extract(name string, raw []byte, mimeType string) (string, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(name string, raw []byte, mimeType string) (string, error)

func (f ExtractorFunc) Extract(name string, raw []byte, mimeType string) (string, error) {
	return f(name, raw, mimeType)
}

type DocumentStore struct {
	mu        sync.RWMutex
	extractor Extractor
	current   *DocumentRecord
	now       func() time.Time
}

func NewDocumentStore(extractor Extractor) *DocumentStore {
	return &DocumentStore{
		extractor: extractor,
		now:       time.Now,
	}
}

// Set extracts raw and replaces the current document. On failure the
// previous document stays in place and an *ExtractionError is returned.
func (s *DocumentStore) Set(name string, raw []byte, mimeType string) (DocumentRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	if len(raw) == 0 {
		return DocumentRecord{}, &ExtractionError{Name: name, Reason: "file is empty"}
	}
	if s.extractor == nil {
		return DocumentRecord{}, &ExtractionError{Name: name, Reason: "no extractor configured"}
	}

	text, err := s.extractor.Extract(name, raw, mimeType)
	if err != nil {
		return DocumentRecord{}, &ExtractionError{Name: name, Reason: "unreadable document", Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return DocumentRecord{}, &ExtractionError{Name: name, Reason: "document contains no extractable text"}
	}

	record := DocumentRecord{
		Name:       name,
		Body:       text,
		UploadedAt: s.now(),
	}

	s.mu.Lock()
	s.current = &record
	s.mu.Unlock()
	return record, nil
}

func (s *DocumentStore) Current() (DocumentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return DocumentRecord{}, false
	}
	return *s.current, true
}

func (s *DocumentStore) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
