package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"maestro/internal/logging"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeCatalog(t, validCatalogYAML)
	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	w, err := NewWatcher(path, cat, logging.New())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	updated := validCatalogYAMLWith("success_rate: 0.9", "success_rate: 0.8")
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		if cat.MustTool("scrapy").SuccessRate == 0.8 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("catalog never reloaded after write")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := writeCatalog(t, validCatalogYAML)
	cat, _ := LoadFile(path)

	w, err := NewWatcher(path, cat, logging.New())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	w.Stop()
	w.Stop()
}
