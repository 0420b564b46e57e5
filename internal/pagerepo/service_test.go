package pagerepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestPageRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsurePageRepo("page_1", "# Minutes\n\nFirst draft.\n", "Mika"); err != nil {
		t.Fatalf("EnsurePageRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "page_1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Second call must be a no-op, not an error.
	if err := svc.EnsurePageRepo("page_1", "other", "Mika"); err != nil {
		t.Fatalf("EnsurePageRepo() repeat error = %v", err)
	}

	rev, err := svc.CommitContent("page_1", "# Minutes\n\nApproved by quorum.\n", "Mika", "Record approval")
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}
	if rev.Hash == "" {
		t.Fatal("expected revision hash")
	}

	history, err := svc.History("page_1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(history))
	}
	if history[0].Hash != rev.Hash {
		t.Fatalf("newest revision first, got %+v", history[0])
	}

	content, err := svc.GetContentByHash("page_1", rev.Hash)
	if err != nil {
		t.Fatalf("GetContentByHash() error = %v", err)
	}
	if !strings.Contains(content, "Approved by quorum") {
		t.Fatalf("unexpected content: %q", content)
	}

	original, err := svc.GetContentByHash("page_1", history[1].Hash)
	if err != nil {
		t.Fatalf("GetContentByHash() original error = %v", err)
	}
	if !strings.Contains(original, "First draft") {
		t.Fatalf("old revision must keep old content: %q", original)
	}
}

func TestConcurrentCommits(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsurePageRepo("page_1", "start\n", "Mika"); err != nil {
		t.Fatalf("EnsurePageRepo() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			body := fmt.Sprintf("revision %02d\n", idx)
			if _, err := svc.CommitContent("page_1", body, "Mika", fmt.Sprintf("Edit %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitContent() concurrent error = %v", err)
		}
	}

	history, err := svc.History("page_1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) < writers+1 {
		t.Fatalf("expected at least %d revisions, got %d", writers+1, len(history))
	}
}
