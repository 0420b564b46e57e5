package store

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
)

func readMigrations(t *testing.T) map[string]string {
	t.Helper()
	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)
	files := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if pattern.FindStringSubmatch(name) == nil {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			t.Fatalf("read migration %s: %v", name, err)
		}
		files[name] = string(contents)
	}
	if len(files) == 0 {
		t.Fatal("no migrations discovered")
	}
	return files
}

func TestMigrationsApplyInLexicalOrder(t *testing.T) {
	files := readMigrations(t)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	pattern := regexp.MustCompile(`^(\d+)_`)
	seen := map[string]bool{}
	for _, name := range names {
		version := pattern.FindStringSubmatch(name)[1]
		if seen[version] {
			t.Fatalf("duplicate migration version %s", version)
		}
		seen[version] = true
	}
}

func TestInitMigrationEnforcesUniqueness(t *testing.T) {
	files := readMigrations(t)
	var initSQL string
	for name, contents := range files {
		if strings.HasPrefix(name, "0001_") {
			initSQL = contents
		}
	}
	if initSQL == "" {
		t.Fatal("missing 0001 init migration")
	}

	// Slug collisions and doubled unit numbers must fail at the
	// database, not in application checks.
	expectedSnippets := []string{
		"url_name TEXT NOT NULL UNIQUE",
		"url_subject TEXT NOT NULL UNIQUE",
		"url_title TEXT NOT NULL UNIQUE",
		"UNIQUE (block_number, unit_number)",
		"users_email_key ON users (LOWER(email))",
		"CHECK (reply_to_id <> id)",
	}
	for _, snippet := range expectedSnippets {
		if !strings.Contains(initSQL, snippet) {
			t.Fatalf("expected init migration to contain %q", snippet)
		}
	}
}
