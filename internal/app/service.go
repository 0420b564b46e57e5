package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"commonroof/api/internal/auth"
	"commonroof/api/internal/authpw"
	"commonroof/api/internal/blob"
	"commonroof/api/internal/config"
	"commonroof/api/internal/email"
	"commonroof/api/internal/export"
	"commonroof/api/internal/pagerepo"
	"commonroof/api/internal/policy"
	"commonroof/api/internal/search"
	"commonroof/api/internal/store"
	"commonroof/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	PersonID     string
	Superuser    bool
	JTI          string
	ExpiresAt    time.Time
}

// Actor converts the session into the shape the policy package reads.
// The zero Session maps to an anonymous actor.
func (s Session) Actor() policy.Actor {
	return policy.Actor{
		UserID:        s.UserID,
		PersonID:      s.PersonID,
		Authenticated: s.UserID != "",
		Superuser:     s.Superuser,
	}
}

// dataStore is the slice of the Postgres store the app layer touches.
type dataStore interface {
	Ping(ctx context.Context) error

	GetUserByID(context.Context, string) (store.User, error)
	GetPersonByUserID(context.Context, string) (store.Person, error)
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)

	ListForums(context.Context) ([]store.Forum, error)
	GetForum(context.Context, string) (store.Forum, error)
	GetForumBySlug(context.Context, string) (store.Forum, error)
	InsertForum(context.Context, store.Forum) error
	UpdateForum(context.Context, store.Forum) error
	ListForumThreads(context.Context, string) ([]store.Thread, error)
	GetThread(context.Context, string) (store.Thread, error)
	GetThreadBySlug(context.Context, string) (store.Thread, error)
	InsertThread(context.Context, store.Thread, store.Post) error
	BumpThreadViews(context.Context, string) (int, error)
	ListThreadPosts(context.Context, string) ([]store.Post, error)
	GetPost(context.Context, string) (store.Post, error)
	InsertPost(context.Context, store.Post) error
	UpdatePost(context.Context, store.Post) error

	ListPersons(context.Context) ([]store.Person, error)
	GetPerson(context.Context, string) (store.Person, error)
	InsertPerson(context.Context, store.Person) error
	UpdatePerson(context.Context, store.Person) error
	PersonDisplayName(context.Context, string) (string, error)
	ListPersonChildren(context.Context, string) ([]store.Person, error)
	ListPersonParents(context.Context, string) ([]store.Person, error)
	IsPersonAncestor(context.Context, string, string) (bool, error)
	AddPersonChild(context.Context, string, string) error
	RemovePersonChild(context.Context, string, string) error
	ListPersonPhones(context.Context, string) ([]store.PhoneNumber, error)
	AddPersonPhone(context.Context, string, store.PhoneNumber) error
	RemovePersonPhone(context.Context, string, string) error

	ListUnits(context.Context) ([]store.Unit, error)
	GetUnit(context.Context, string) (store.Unit, error)
	InsertUnit(context.Context, store.Unit) error
	UpdateUnit(context.Context, store.Unit) error
	ListUnitOccupants(context.Context, string) ([]store.Person, error)

	ListCommittees(context.Context) ([]store.Committee, error)
	GetCommittee(context.Context, string) (store.Committee, error)
	GetCommitteeBySlug(context.Context, string) (store.Committee, error)
	InsertCommittee(context.Context, store.Committee) error
	UpdateCommittee(context.Context, store.Committee) error
	ListCommitteeMembers(context.Context, string) ([]store.Person, error)
	SetCommitteeMembers(context.Context, string, []string) error

	ListMoves(context.Context) ([]store.Move, error)
	GetMove(context.Context, string) (store.Move, error)
	InsertMove(context.Context, store.Move) error
	UpdateMove(context.Context, store.Move) error
	SetMoveMovers(context.Context, string, []string) error
	ListMoveMovers(context.Context, string) ([]store.Person, error)

	ListBlockRepresentatives(context.Context) ([]store.BlockRepresentative, error)
	InsertBlockRepresentative(context.Context, store.BlockRepresentative) error
	DeleteBlockRepresentative(context.Context, string) error

	ListPages(context.Context) ([]store.Page, error)
	GetPage(context.Context, string) (store.Page, error)
	GetPageBySlug(context.Context, string) (store.Page, error)
	InsertPage(context.Context, store.Page) error
	UpdatePage(context.Context, store.Page) error

	ListFiles(context.Context) ([]store.File, error)
	GetFile(context.Context, string) (store.File, error)
	GetFileByName(context.Context, string) (store.File, error)
	InsertFile(context.Context, store.File) error
	UpdateFile(context.Context, store.File) error
	DeleteFile(context.Context, string) error

	GetSettings(context.Context) (store.Settings, error)
	UpdateSettings(context.Context, store.Settings) error
}

// sessionStore holds hashed refresh tokens. Redis when configured,
// the Postgres store otherwise.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type pageRepo interface {
	EnsurePageRepo(pageID, content, author string) error
	CommitContent(pageID, content, author, message string) (pagerepo.Revision, error)
	GetContentByHash(pageID, hash string) (string, error)
	History(pageID string, limit int) ([]pagerepo.Revision, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	auth     *authpw.Service
	pages    pageRepo
	search   *search.Service
	blobs    *blob.Service
	email    *email.Service
	export   *export.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, pages *pagerepo.Service, searchService *search.Service) *Service {
	return NewWithSessionStore(cfg, dataStore, dataStore, pages, searchService)
}

// NewWithSessionStore wires an alternative refresh-token store, such
// as Redis.
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, pages *pagerepo.Service, searchService *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		auth:     authpw.NewService(dataStore),
		pages:    pages,
		search:   searchService,
		email: email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}),
		export: export.NewService(dataStore, cfg.CoopName),
	}
}

// SetBlobStore enables file uploads. Without it the file endpoints
// report uploads as unavailable.
func (s *Service) SetBlobStore(blobs *blob.Service) {
	s.blobs = blobs
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.auth
}

func (s *Service) EmailService() *email.Service {
	return s.email
}

func (s *Service) SMTPConfigured() bool {
	return s.email.IsConfigured()
}

// SendVerificationEmail delivers the verification link in the
// background so signup latency stays independent of the SMTP server.
func (s *Service) SendVerificationEmail(to, userName, token string) {
	url := s.cfg.PublicBaseURL + "/verify-email?token=" + token
	go func() {
		if err := s.email.SendVerificationEmail(to, userName, url); err != nil {
			log.Printf("send verification email to %s: %v", to, err)
		}
	}()
}

func (s *Service) SendPasswordResetEmail(to, token string) {
	url := s.cfg.PublicBaseURL + "/reset-password?token=" + token
	go func() {
		if err := s.email.SendPasswordResetEmail(to, "", url); err != nil {
			log.Printf("send password reset email to %s: %v", to, err)
		}
	}()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap runs once at startup: it verifies the settings row the
// migrations seed and warms the external search index from Postgres.
func (s *Service) Bootstrap(ctx context.Context) error {
	if _, err := s.store.GetSettings(ctx); err != nil {
		return err
	}
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	partial, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The session store only persists the user id; flags like
	// superuser are re-read so changes apply on the next refresh.
	user, err := s.store.GetUserByID(ctx, partial.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	personID, err := s.personIDForUser(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:       user.ID,
		Name:      user.DisplayName,
		PersonID:  personID,
		Superuser: user.Superuser,
		JTI:       jti,
		Exp:       expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewToken()
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		PersonID:     personID,
		Superuser:    user.Superuser,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	personID, err := s.personIDForUser(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		PersonID:  personID,
		Superuser: user.Superuser,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// personIDForUser resolves the directory entry linked to an account.
// Accounts without one (fresh signups) get an empty id.
func (s *Service) personIDForUser(ctx context.Context, userID string) (string, error) {
	person, err := s.store.GetPersonByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return person.ID, nil
}

// ExportMembershipList renders the membership list. Auth only; any
// signed-in member may download it.
func (s *Service) ExportMembershipList(ctx context.Context, session Session, format export.Format) (*export.Result, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}
	return s.export.ExportMembershipList(ctx, format)
}

// Search runs the member search. Anonymous callers only ever see
// public pages; the search layer enforces that with the flag below.
func (s *Service) Search(ctx context.Context, session Session, q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	q.Authenticated = session.Actor().Authenticated
	return s.search.Search(q)
}
