package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"commonroof/api/internal/store"
)

func doRequest(t *testing.T, svc *Service, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	NewHTTPServer(svc, "*").Handler().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return response
}

func TestHealthEndpoint(t *testing.T) {
	svc := newTestService(&fakeStore{})

	rr := doRequest(t, svc, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["ok"] != true {
		t.Errorf("expected ok=true, got %v", response["ok"])
	}
}

func TestReadyEndpointDatabaseFailure(t *testing.T) {
	fs := &fakeStore{
		pingFn: func(context.Context) error {
			return errors.New("connection refused")
		},
	}
	svc := newTestService(fs)

	rr := doRequest(t, svc, http.MethodGet, "/api/ready", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response["status"] != "not_ready" {
		t.Errorf("status = %v", response["status"])
	}
}

func TestForumRoutesRequireAuth(t *testing.T) {
	svc := newTestService(&fakeStore{})

	for _, path := range []string{"/api/forums", "/api/members", "/api/units", "/api/moves"} {
		rr := doRequest(t, svc, http.MethodGet, path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s anonymous = %d, want 401", path, rr.Code)
		}
	}
}

func TestSessionEndpointAnonymous(t *testing.T) {
	svc := newTestService(&fakeStore{})

	rr := doRequest(t, svc, http.MethodGet, "/api/session", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["authenticated"] != false {
		t.Errorf("expected authenticated=false, got %v", response["authenticated"])
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	// Unknown email and wrong password produce the same response.
	svc := newTestService(&fakeStore{})

	rr := doRequest(t, svc, http.MethodPost, "/api/auth/signin", "", `{"email":"nobody@example.com","password":"wrong-password"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("code = %v", response["code"])
	}
}

func TestSignUpDevBypassWithoutSMTP(t *testing.T) {
	svc := newTestService(&fakeStore{})

	rr := doRequest(t, svc, http.MethodPost, "/api/auth/signup", "", `{"email":"new@example.com","password":"longenough","displayName":"New Member"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	response := decodeResponse(t, rr)
	if token, ok := response["devVerificationToken"].(string); !ok || token == "" {
		t.Error("expected devVerificationToken when SMTP is not configured")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{
				ID:           "user_1",
				Email:        email,
				PasswordHash: "$2a$10$N9qo8uLOickgx2ZMRZoMye.IjZaglhFTDRLQ9keWk2b5z0X3j1kJm",
			}, nil
		},
	}
	svc := newTestService(fs)

	// Wrong password for an existing account is still a 401.
	rr := doRequest(t, svc, http.MethodPost, "/api/auth/signin", "", `{"email":"ada@example.com","password":"not-the-password"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestBearerSessionReachesForums(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, DisplayName: "Ada Brown"}, nil
		},
		listForumsFn: func(context.Context) ([]store.Forum, error) {
			return []store.Forum{{ID: "forum_1", Name: "General", URLName: "general"}}, nil
		},
	}
	svc := newTestService(fs)

	session, err := svc.CreateSession(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	rr := doRequest(t, svc, http.MethodGet, "/api/forums", session.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	response := decodeResponse(t, rr)
	general := response["general"].([]any)
	if len(general) != 1 {
		t.Errorf("general forums = %v", general)
	}
}

func TestDuplicateForumNameMapsTo422(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, DisplayName: "Ada Brown"}, nil
		},
		insertForumFn: func(context.Context, store.Forum) error {
			return &store.DuplicateNameError{Field: "forum", Name: "General"}
		},
	}
	svc := newTestService(fs)

	session, err := svc.CreateSession(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	rr := doRequest(t, svc, http.MethodPost, "/api/forums", session.Token, `{"name":"General"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response["code"] != "DUPLICATE_NAME" {
		t.Errorf("code = %v", response["code"])
	}
	details := response["details"].(map[string]any)
	if details["name"] != "General" {
		t.Errorf("details = %v", details)
	}
}

func TestMissingThreadMapsTo404(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, DisplayName: "Ada Brown"}, nil
		},
		getForumBySlugFn: func(_ context.Context, slug string) (store.Forum, error) {
			return store.Forum{ID: "forum_1", URLName: slug}, nil
		},
		getThreadBySlugFn: func(context.Context, string) (store.Thread, error) {
			return store.Thread{}, sql.ErrNoRows
		},
	}
	svc := newTestService(fs)

	session, err := svc.CreateSession(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	rr := doRequest(t, svc, http.MethodGet, "/api/forums/general/threads/missing", session.Token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestMembershipExportCSVEndpoint(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, DisplayName: "Ada Brown"}, nil
		},
		listMemberRowsFn: func(context.Context) ([]store.MemberRow, error) {
			return []store.MemberRow{
				{
					BlockNumber: 1701,
					UnitNumber:  101,
					PersonID:    "person_1",
					Name:        "Ada Brown",
					Email:       "ada@example.com",
					Committees:  []string{"Finance"},
				},
			}, nil
		},
	}
	svc := newTestService(fs)

	session, err := svc.CreateSession(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	rr := doRequest(t, svc, http.MethodGet, "/api/members/export.csv", session.Token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("content type = %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("content disposition = %q", got)
	}
	if !strings.Contains(rr.Body.String(), "Ada Brown") {
		t.Error("CSV body missing member name")
	}

	// Anonymous export is rejected.
	rr = doRequest(t, svc, http.MethodGet, "/api/members/export.csv", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous export = %d, want 401", rr.Code)
	}
}

func TestPublicPageReadableAnonymously(t *testing.T) {
	fs := &fakeStore{
		getPageBySlugFn: func(_ context.Context, slug string) (store.Page, error) {
			return store.Page{ID: "page_1", Title: "Welcome", URLTitle: slug, Content: "Hello", Public: true}, nil
		},
	}
	svc := newTestService(fs)

	rr := doRequest(t, svc, http.MethodGet, "/api/pages/welcome", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response["content"] != "Hello" {
		t.Errorf("content = %v", response["content"])
	}
	if response["canEdit"] != false {
		t.Errorf("canEdit = %v", response["canEdit"])
	}
}
