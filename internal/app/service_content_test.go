package app

import (
	"context"
	"errors"
	"testing"

	"commonroof/api/internal/store"
)

func TestListPagesFiltersForAnonymous(t *testing.T) {
	fs := &fakeStore{
		listPagesFn: func(context.Context) ([]store.Page, error) {
			return []store.Page{
				{ID: "page_1", Title: "Welcome", URLTitle: "welcome", Public: true},
				{ID: "page_2", Title: "Minutes", URLTitle: "minutes"},
			}, nil
		},
	}
	svc := newTestService(fs)

	payload, err := svc.ListPages(context.Background(), Session{})
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	pages := payload["pages"].([]map[string]any)
	if len(pages) != 1 || pages[0]["slug"] != "welcome" {
		t.Errorf("anonymous listing = %v", pages)
	}

	payload, err = svc.ListPages(context.Background(), memberSession())
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if got := len(payload["pages"].([]map[string]any)); got != 2 {
		t.Errorf("member listing has %d pages", got)
	}
}

func TestGetPageBySlugVisibility(t *testing.T) {
	fs := &fakeStore{
		getPageBySlugFn: func(_ context.Context, slug string) (store.Page, error) {
			return store.Page{ID: "page_2", Title: "Minutes", URLTitle: slug}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.GetPageBySlug(context.Background(), Session{}, "minutes")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for anonymous member-page read, got %v", err)
	}

	if _, err := svc.GetPageBySlug(context.Background(), memberSession(), "minutes"); err != nil {
		t.Fatalf("member read failed: %v", err)
	}
}

func TestCreatePageTrustedFlagSuperuserOnly(t *testing.T) {
	var inserted store.Page
	fs := &fakeStore{
		insertPageFn: func(_ context.Context, p store.Page) error {
			inserted = p
			return nil
		},
	}
	svc := newTestService(fs)

	input := PageInput{Title: "Move-Out Checklist", Content: "# Checklist", Trusted: true}
	if _, err := svc.CreatePage(context.Background(), memberSession(), input); err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if inserted.Trusted {
		t.Error("non-superuser must not create trusted pages")
	}
	if inserted.URLTitle != "move-out-checklist" {
		t.Errorf("slug = %q", inserted.URLTitle)
	}

	if _, err := svc.CreatePage(context.Background(), superSession(), input); err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if !inserted.Trusted {
		t.Error("superuser trusted flag dropped")
	}
}

func TestUpdatePageCommitsOnlyOnContentChange(t *testing.T) {
	page := store.Page{
		ID:       "page_1",
		Title:    "House Rules",
		URLTitle: "house-rules",
		Content:  "v1",
		Editable: true,
	}
	fs := &fakeStore{
		getPageFn: func(context.Context, string) (store.Page, error) {
			return page, nil
		},
	}
	svc := newTestService(fs)
	pages := svc.pages.(*fakePages)
	_ = pages.EnsurePageRepo("page_1", "v1", "Setup")

	// Title-only edit leaves the repo untouched.
	if _, err := svc.UpdatePage(context.Background(), memberSession(), "page_1", PageInput{Title: "House Rules 2026", Content: "v1"}); err != nil {
		t.Fatalf("UpdatePage failed: %v", err)
	}
	if len(pages.commits["page_1"]) != 1 {
		t.Errorf("expected 1 revision after title edit, got %d", len(pages.commits["page_1"]))
	}

	if _, err := svc.UpdatePage(context.Background(), memberSession(), "page_1", PageInput{Title: "House Rules", Content: "v2"}); err != nil {
		t.Fatalf("UpdatePage failed: %v", err)
	}
	if len(pages.commits["page_1"]) != 2 {
		t.Errorf("expected 2 revisions after content edit, got %d", len(pages.commits["page_1"]))
	}
}

func TestUpdatePageNonEditablePageCreatorOnly(t *testing.T) {
	fs := &fakeStore{
		getPageFn: func(_ context.Context, id string) (store.Page, error) {
			return store.Page{ID: id, Title: "Board Only", URLTitle: "board-only", Audit: store.Audit{CreatorID: strPtr("user_board")}}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.UpdatePage(context.Background(), memberSession(), "page_1", PageInput{Title: "Board Only", Content: "x"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestPageHistoryAndRevision(t *testing.T) {
	fs := &fakeStore{
		getPageFn: func(_ context.Context, id string) (store.Page, error) {
			return store.Page{ID: id, Public: true}, nil
		},
	}
	svc := newTestService(fs)
	pages := svc.pages.(*fakePages)
	_ = pages.EnsurePageRepo("page_1", "original", "Ada")
	_, _ = pages.CommitContent("page_1", "edited", "Ben", "Edit")

	payload, err := svc.PageHistory(context.Background(), Session{}, "page_1", 0)
	if err != nil {
		t.Fatalf("PageHistory failed: %v", err)
	}
	revisions := payload["revisions"].([]map[string]any)
	if len(revisions) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revisions))
	}

	rev, err := svc.PageRevision(context.Background(), Session{}, "page_1", "rev0")
	if err != nil {
		t.Fatalf("PageRevision failed: %v", err)
	}
	if rev["content"] != "original" {
		t.Errorf("revision content = %v", rev["content"])
	}

	_, err = svc.PageRevision(context.Background(), Session{}, "page_1", "nope")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for unknown revision, got %v", err)
	}
}

func TestUploadFileWithoutBlobStore(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.UploadFile(context.Background(), memberSession(), "minutes.pdf", "", "application/pdf", nil, 100, false)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "UPLOADS_UNAVAILABLE" {
		t.Fatalf("expected UPLOADS_UNAVAILABLE, got %v", err)
	}
}

func TestUpdateFileMetadataUploaderOnly(t *testing.T) {
	fs := &fakeStore{
		getFileFn: func(_ context.Context, id string) (store.File, error) {
			return store.File{ID: id, Name: "minutes.pdf", Audit: store.Audit{CreatorID: strPtr("user_other")}}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.UpdateFileMetadata(context.Background(), memberSession(), "file_1", FileMetadataInput{Name: "renamed.pdf"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if _, err := svc.UpdateFileMetadata(context.Background(), superSession(), "file_1", FileMetadataInput{Name: "renamed.pdf"}); err != nil {
		t.Fatalf("superuser metadata edit failed: %v", err)
	}
}

func TestSettingsNavListsRequireAuth(t *testing.T) {
	fs := &fakeStore{
		getSettingsFn: func(context.Context) (store.Settings, error) {
			return store.Settings{
				CoopName:      "Cedar Grove",
				News:          "AGM on Thursday.",
				PublicPageIDs: []string{"page_1"},
				MemberPageIDs: []string{"page_2"},
			}, nil
		},
	}
	svc := newTestService(fs)

	payload, err := svc.GetSettings(context.Background(), Session{})
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if payload["coopName"] != "Cedar Grove" {
		t.Errorf("coopName = %v", payload["coopName"])
	}
	if _, ok := payload["memberPageIds"]; ok {
		t.Error("anonymous settings must not include navigation lists")
	}

	payload, err = svc.GetSettings(context.Background(), memberSession())
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if _, ok := payload["memberPageIds"]; !ok {
		t.Error("member settings missing navigation lists")
	}
}

func TestUpdateSettingsSuperuserOnly(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.UpdateSettings(context.Background(), memberSession(), store.Settings{CoopName: "New Name"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if _, err := svc.UpdateSettings(context.Background(), superSession(), store.Settings{CoopName: "New Name"}); err != nil {
		t.Fatalf("superuser settings update failed: %v", err)
	}
}
