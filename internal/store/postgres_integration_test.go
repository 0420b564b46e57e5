package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("COMMONROOF_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("COMMONROOF_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func TestForumSlugUniquenessIsDuplicateNameError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Forum{ID: "forum_1", Name: "Common Room", URLName: "common-room"}
	if err := s.InsertForum(ctx, first); err != nil {
		t.Fatalf("insert forum: %v", err)
	}

	second := Forum{ID: "forum_2", Name: "Common Room", URLName: "common-room"}
	err := s.InsertForum(ctx, second)
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if dup.Name != "Common Room" {
		t.Fatalf("expected attempted name to survive, got %q", dup.Name)
	}
}

func TestBumpThreadViewsReturnsFreshCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertForum(ctx, Forum{ID: "forum_1", Name: "General", URLName: "general"}); err != nil {
		t.Fatalf("insert forum: %v", err)
	}
	thread := Thread{ID: "thread_1", ForumID: "forum_1", Subject: "Roof leak", URLSubject: "roof-leak"}
	opening := Post{ID: "post_1", Subject: "Roof leak", Body: "Water again"}
	if err := s.InsertThread(ctx, thread, opening); err != nil {
		t.Fatalf("insert thread: %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := s.BumpThreadViews(ctx, "thread_1")
		if err != nil {
			t.Fatalf("bump views: %v", err)
		}
		if got != want {
			t.Fatalf("views = %d, want %d", got, want)
		}
	}
}

func TestListMemberRowsPrefersLinkedDisplayName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertUnit(ctx, Unit{ID: "unit_1", BlockNumber: 1701, UnitNumber: 101}); err != nil {
		t.Fatalf("insert unit: %v", err)
	}
	if err := s.CreateUser(ctx, User{ID: "user_1", DisplayName: "Ada B.", Email: "ada@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	unitID := "unit_1"
	userID := "user_1"
	linked := Person{ID: "person_1", FirstName: "Ada", LastName: "Brown", UserID: &userID, UnitID: &unitID, Member: true}
	unlinked := Person{ID: "person_2", FirstName: "Ben", LastName: "Green", UnitID: &unitID, Member: true}
	for _, p := range []Person{linked, unlinked} {
		if err := s.InsertPerson(ctx, p); err != nil {
			t.Fatalf("insert person: %v", err)
		}
	}

	rows, err := s.ListMemberRows(ctx)
	if err != nil {
		t.Fatalf("list member rows: %v", err)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.PersonID] = row.Name
	}
	// Same resolution as PersonDisplayName: the linked account's
	// display name wins over the stored first/last name.
	if names["person_1"] != "Ada B." {
		t.Fatalf("linked member name = %q, want %q", names["person_1"], "Ada B.")
	}
	if names["person_2"] != "Ben Green" {
		t.Fatalf("unlinked member name = %q, want %q", names["person_2"], "Ben Green")
	}
}

func TestIsPersonAncestorDetectsCycles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"person_a", "person_b", "person_c"} {
		if err := s.InsertPerson(ctx, Person{ID: id, FirstName: id}); err != nil {
			t.Fatalf("insert person: %v", err)
		}
	}
	if err := s.AddPersonChild(ctx, "person_a", "person_b"); err != nil {
		t.Fatalf("link a->b: %v", err)
	}
	if err := s.AddPersonChild(ctx, "person_b", "person_c"); err != nil {
		t.Fatalf("link b->c: %v", err)
	}

	found, err := s.IsPersonAncestor(ctx, "person_c", "person_a")
	if err != nil {
		t.Fatalf("walk ancestors: %v", err)
	}
	if !found {
		t.Fatal("expected person_a to be an ancestor of person_c")
	}

	found, err = s.IsPersonAncestor(ctx, "person_a", "person_c")
	if err != nil {
		t.Fatalf("walk ancestors: %v", err)
	}
	if found {
		t.Fatal("person_c must not be an ancestor of person_a")
	}
}
