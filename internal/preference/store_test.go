package preference

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "preferences.jsonl")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	recs := []Record{
		{ID: "1", TaskType: "scraping", Relaxed: "budget", Protected: "quality", DeltaPct: 20, Timestamp: time.Now().UTC()},
		{ID: "2", TaskType: "analysis", Relaxed: "none", Protected: "none", Timestamp: time.Now().UTC()},
	}
	for _, rec := range recs {
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d records, want 2", len(all))
	}
	if all[0].ID != "1" || all[1].ID != "2" {
		t.Errorf("order not preserved: %s, %s", all[0].ID, all[1].ID)
	}

	scraping, err := store.Query("scraping")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(scraping) != 1 || scraping[0].Relaxed != "budget" {
		t.Errorf("Query returned %+v", scraping)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.jsonl")
	store, _ := NewFileStore(path)
	store.Append(Record{ID: "1", TaskType: "scraping", Relaxed: "budget"})

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	all, _ := reopened.All()
	if len(all) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(all))
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "never-written.jsonl"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	all, err := store.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if all != nil {
		t.Errorf("got %v, want nil for missing file", all)
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.jsonl")
	store, _ := NewFileStore(path)
	store.Append(Record{ID: "1", TaskType: "scraping", Relaxed: "budget"})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{broken json\n")
	f.Close()

	store.Append(Record{ID: "2", TaskType: "scraping", Relaxed: "time"})

	all, err := store.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d records, want 2 with the corrupt line skipped", len(all))
	}
}
