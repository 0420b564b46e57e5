// Package policy holds the visibility and edit rules for co-op content.
// Decisions are pure functions of the acting user and the resource
// attributes so they can be checked anywhere without touching storage.
package policy

// Actor identifies the requesting user. The zero value is an
// anonymous visitor.
type Actor struct {
	UserID        string
	PersonID      string
	Authenticated bool
	Superuser     bool
}

// Restricted describes content with a public flag. Public content is
// readable by anyone; everything else needs a signed-in member.
type Restricted struct {
	Public bool
}

// CanView reports whether the actor may read flagged content such as
// pages and files.
func CanView(a Actor, r Restricted) bool {
	if r.Public {
		return true
	}
	return a.Authenticated
}

// CanViewForum reports whether the actor may read forums, threads, and
// posts. Forum content is never public.
func CanViewForum(a Actor) bool {
	return a.Authenticated
}

// PageTarget carries the attributes of a page relevant to editing.
type PageTarget struct {
	CreatorID string
	Editable  bool
}

// CanEditPage allows the creator always, any signed-in member when the
// page is flagged editable, and superusers unconditionally.
func CanEditPage(a Actor, p PageTarget) bool {
	if a.Superuser {
		return true
	}
	if !a.Authenticated {
		return false
	}
	if p.Editable {
		return true
	}
	return p.CreatorID != "" && p.CreatorID == a.UserID
}

// CanEditFile restricts file metadata changes to the uploader.
func CanEditFile(a Actor, creatorID string) bool {
	if a.Superuser {
		return true
	}
	return a.Authenticated && creatorID != "" && creatorID == a.UserID
}

// CanEditPost restricts post edits to the author.
func CanEditPost(a Actor, creatorID string) bool {
	if a.Superuser {
		return true
	}
	return a.Authenticated && creatorID != "" && creatorID == a.UserID
}

// CanEditCommittee allows current committee members and superusers.
// memberIDs are person ids.
func CanEditCommittee(a Actor, memberIDs []string) bool {
	if a.Superuser {
		return true
	}
	if !a.Authenticated || a.PersonID == "" {
		return false
	}
	for _, id := range memberIDs {
		if id == a.PersonID {
			return true
		}
	}
	return false
}

// CanEditPerson allows a person to edit their own profile via the
// linked user account, and superusers to edit anyone.
func CanEditPerson(a Actor, personID string) bool {
	if a.Superuser {
		return true
	}
	return a.Authenticated && a.PersonID != "" && a.PersonID == personID
}
