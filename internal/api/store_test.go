package api

import (
	"testing"
	"time"

	"github.com/formintake/formintake/internal/fields"
)

func TestDocumentStorePutGet(t *testing.T) {
	store := NewDocumentStore(time.Minute, time.Minute)

	result := &fields.Result{
		FormType:  fields.FormTypeI485,
		Fields:    []fields.Field{{ItemNumber: "1", Label: "Full Legal Name"}},
		Hierarchy: map[string]fields.HierarchyEntry{},
	}
	id := store.Put(&StoredDocument{
		Name:   "i485.txt",
		Format: "text",
		Result: result,
	})

	if id == "" {
		t.Fatal("Expected non-empty id from Put")
	}

	doc, found := store.Get(id)
	if !found {
		t.Fatal("Expected stored document to be found")
	}
	if doc.ID != id {
		t.Errorf("Expected document id %s, got %s", id, doc.ID)
	}
	if doc.Name != "i485.txt" {
		t.Errorf("Expected document name i485.txt, got %s", doc.Name)
	}
	if doc.Result.FormType != fields.FormTypeI485 {
		t.Errorf("Expected form type I-485, got %s", doc.Result.FormType)
	}
	if doc.Uploaded.IsZero() {
		t.Error("Expected upload time to be set")
	}
}

func TestDocumentStoreMissing(t *testing.T) {
	store := NewDocumentStore(time.Minute, time.Minute)

	if _, found := store.Get("no-such-id"); found {
		t.Error("Expected missing id to not be found")
	}
}

func TestDocumentStoreUniqueIDs(t *testing.T) {
	store := NewDocumentStore(time.Minute, time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id := store.Put(&StoredDocument{Name: "doc.txt", Result: &fields.Result{}})
		if seen[id] {
			t.Fatalf("Duplicate id generated: %s", id)
		}
		seen[id] = true
	}

	if store.Count() != 10 {
		t.Errorf("Expected 10 stored documents, got %d", store.Count())
	}
}

func TestDocumentStoreExpiry(t *testing.T) {
	store := NewDocumentStore(10*time.Millisecond, time.Minute)

	id := store.Put(&StoredDocument{Name: "doc.txt", Result: &fields.Result{}})
	time.Sleep(30 * time.Millisecond)

	if _, found := store.Get(id); found {
		t.Error("Expected document to expire after TTL")
	}
}
