package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	Superuser             bool
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Audit is embedded by every record a member can create or modify.
// CreatorID is set once on insert; ModifierID tracks the last editor.
type Audit struct {
	CreatorID  *string
	ModifierID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Person struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	UserID           *string
	UnitID           *string
	Member           bool
	CommitteeExcused bool
	Notes            string
	Audit
}

type PhoneNumber struct {
	ID     string
	Number string
	Type   string // "", "cell", "home"
	Audit
}

type Unit struct {
	ID          string
	BlockNumber int
	UnitNumber  int
	Bedrooms    *int
	Bathrooms   *int
	Notes       string
	PageContent string
	Audit
}

type BlockRepresentative struct {
	ID          string
	BlockNumber int
	PersonID    string
	CommitteeID *string
	Role        string // "roof monitor", "maintenance"
	Audit
}

type Committee struct {
	ID          string
	Name        string
	URLName     string
	ChairID     *string
	ForumID     *string
	Description string
	Audit
}

type Move struct {
	ID        string
	Type      string // "move-in", "move-out", "internal-move"
	InUnitID  *string
	OutUnitID *string
	MoveDate  *time.Time
	Notes     string
	Audit
}

type Forum struct {
	ID          string
	Name        string
	URLName     string
	Description string
	Audit
	// Joined fields for listings
	CommitteeID   *string
	CommitteeName string
	ThreadCount   int
	PostCount     int
	LastPost      *PostSummary
}

type Thread struct {
	ID         string
	ForumID    string
	Subject    string
	URLSubject string
	Views      int
	Audit
	// Joined fields for listings
	PostCount int
	LastPost  *PostSummary
}

type Post struct {
	ID        string
	ThreadID  string
	Subject   string
	Body      string
	ReplyToID *string
	Audit
	AuthorName string
}

// PostSummary is the compact "most recent post" shape used by forum
// and thread listings.
type PostSummary struct {
	ID         string
	ThreadID   string
	Subject    string
	AuthorName string
	CreatedAt  time.Time
}

type Page struct {
	ID       string
	Title    string
	URLTitle string
	Content  string
	Public   bool
	Editable bool
	Trusted  bool
	Audit
}

type File struct {
	ID          string
	Name        string
	Description string
	ContentType string
	Size        int64
	Public      bool
	ObjectPath  string
	Audit
}

// Settings is the single site-wide configuration row (id 1).
type Settings struct {
	PublicPageIDs []string
	MemberPageIDs []string
	HomePageID    *string
	CoopName      string
	News          string
	UpdatedAt     time.Time
	ModifierID    *string
}

// MemberRow is one unit occupant as the membership-list export needs
// it: resolved names, household phones, and committee assignments.
type MemberRow struct {
	BlockNumber      int
	UnitNumber       int
	PersonID         string
	Name             string
	Children         []string
	Phones           []string
	Email            string
	Committees       []string
	Chairships       []string
	CommitteeExcused bool
}
