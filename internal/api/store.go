package api

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/formintake/formintake/internal/fields"
)

// StoredDocument is one uploaded document's extraction outcome, held
// for the export and preview endpoints
type StoredDocument struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Format   string         `json:"format"`
	Pages    int            `json:"pages,omitempty"`
	Result   *fields.Result `json:"result"`
	Uploaded time.Time      `json:"uploaded"`
}

// DocumentStore holds upload results in memory with a TTL, keyed by
// the id returned to the uploader. Expired documents simply age out;
// there is no persistence.
type DocumentStore struct {
	cache *gocache.Cache
}

// NewDocumentStore creates a document store with the given TTL and
// cleanup interval
func NewDocumentStore(ttl, cleanupInterval time.Duration) *DocumentStore {
	return &DocumentStore{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Put stores a document under a fresh id and returns the id
func (s *DocumentStore) Put(doc *StoredDocument) string {
	doc.ID = uuid.NewString()
	doc.Uploaded = time.Now()
	s.cache.Set(doc.ID, doc, gocache.DefaultExpiration)
	return doc.ID
}

// Get retrieves a stored document by id
func (s *DocumentStore) Get(id string) (*StoredDocument, bool) {
	if val, found := s.cache.Get(id); found {
		return val.(*StoredDocument), true
	}
	return nil, false
}

// Count returns the number of stored documents, expired ones included
func (s *DocumentStore) Count() int {
	return s.cache.ItemCount()
}
