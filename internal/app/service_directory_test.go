package app

import (
	"context"
	"errors"
	"testing"

	"commonroof/api/internal/store"
)

func TestUpdateMemberSelfEditKeepsAdministrativeFields(t *testing.T) {
	var updated store.Person
	fs := &fakeStore{
		getPersonFn: func(_ context.Context, id string) (store.Person, error) {
			return store.Person{
				ID:        id,
				FirstName: "Ada",
				LastName:  "Brown",
				Member:    true,
				UnitID:    strPtr("unit_1"),
			}, nil
		},
		updatePersonFn: func(_ context.Context, p store.Person) error {
			updated = p
			return nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.UpdateMember(context.Background(), memberSession(), "person_1", PersonInput{
		FirstName: "Ada",
		LastName:  "Brown-Lee",
		Email:     "ada@example.com",
		Member:    false,
		UnitID:    nil,
	})
	if err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}
	if updated.LastName != "Brown-Lee" || updated.Email != "ada@example.com" {
		t.Errorf("contact fields not applied: %+v", updated)
	}
	if !updated.Member {
		t.Error("self-edit must not clear the member flag")
	}
	if updated.UnitID == nil || *updated.UnitID != "unit_1" {
		t.Error("self-edit must not reassign the unit")
	}
}

func TestUpdateMemberOtherPersonForbidden(t *testing.T) {
	fs := &fakeStore{
		getPersonFn: func(_ context.Context, id string) (store.Person, error) {
			return store.Person{ID: id}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.UpdateMember(context.Background(), memberSession(), "person_other", PersonInput{FirstName: "X"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCreateMemberSuperuserOnly(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.CreateMember(context.Background(), memberSession(), PersonInput{FirstName: "New"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if _, err := svc.CreateMember(context.Background(), superSession(), PersonInput{FirstName: "New"}); err != nil {
		t.Fatalf("superuser create failed: %v", err)
	}
}

func TestAddMemberChildRejectsCycle(t *testing.T) {
	linked := false
	fs := &fakeStore{
		getPersonFn: func(_ context.Context, id string) (store.Person, error) {
			return store.Person{ID: id}, nil
		},
		isPersonAncestorFn: func(_ context.Context, personID, candidateID string) (bool, error) {
			// The prospective child is already above the parent.
			return candidateID == "person_grandparent", nil
		},
		addPersonChildFn: func(context.Context, string, string) error {
			linked = true
			return nil
		},
	}
	svc := newTestService(fs)

	err := svc.AddMemberChild(context.Background(), superSession(), "person_parent", "person_grandparent")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
	if linked {
		t.Error("link must not be written when a cycle is detected")
	}

	if err := svc.AddMemberChild(context.Background(), superSession(), "person_parent", "person_kid"); err != nil {
		t.Fatalf("valid child link failed: %v", err)
	}
	if !linked {
		t.Error("expected valid link to be written")
	}
}

func TestAddMemberPhoneValidatesType(t *testing.T) {
	fs := &fakeStore{
		getPersonFn: func(_ context.Context, id string) (store.Person, error) {
			return store.Person{ID: id}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.AddMemberPhone(context.Background(), superSession(), "person_1", "604-555-0101", "fax")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected phone type rejection, got %v", err)
	}

	payload, err := svc.AddMemberPhone(context.Background(), superSession(), "person_1", "604-555-0101", "cell")
	if err != nil {
		t.Fatalf("AddMemberPhone failed: %v", err)
	}
	if payload["number"] != "604-555-0101" {
		t.Errorf("number = %v", payload["number"])
	}
}

func TestCreateCommitteeCreatesForum(t *testing.T) {
	var forum store.Forum
	var committee store.Committee
	fs := &fakeStore{
		insertForumFn: func(_ context.Context, f store.Forum) error {
			forum = f
			return nil
		},
		insertCommitteeFn: func(_ context.Context, c store.Committee) error {
			committee = c
			return nil
		},
	}
	svc := newTestService(fs)

	payload, err := svc.CreateCommittee(context.Background(), superSession(), CommitteeInput{
		Name:        "Grounds & Gardens",
		Description: "Keeps the grounds tidy.",
	})
	if err != nil {
		t.Fatalf("CreateCommittee failed: %v", err)
	}
	if forum.ID == "" {
		t.Fatal("expected a forum to be created")
	}
	if committee.ForumID == nil || *committee.ForumID != forum.ID {
		t.Error("committee not linked to its forum")
	}
	// Dropping "&" leaves two spaces, and each space maps to a hyphen.
	if committee.URLName != "grounds--gardens" || forum.URLName != "grounds--gardens" {
		t.Errorf("slugs = %q / %q", committee.URLName, forum.URLName)
	}
	if payload["slug"] != "grounds--gardens" {
		t.Errorf("payload slug = %v", payload["slug"])
	}
}

func TestUpdateCommitteeMemberAllowed(t *testing.T) {
	fs := &fakeStore{
		getCommitteeFn: func(_ context.Context, id string) (store.Committee, error) {
			return store.Committee{ID: id, Name: "Finance", URLName: "finance"}, nil
		},
		listCommitteeMembersFn: func(context.Context, string) ([]store.Person, error) {
			return []store.Person{{ID: "person_1"}, {ID: "person_2"}}, nil
		},
	}
	svc := newTestService(fs)

	if _, err := svc.UpdateCommittee(context.Background(), memberSession(), "com_1", CommitteeInput{Name: "Finance"}); err != nil {
		t.Fatalf("committee member edit failed: %v", err)
	}

	outsider := Session{UserID: "user_9", PersonID: "person_9"}
	_, err := svc.UpdateCommittee(context.Background(), outsider, "com_1", CommitteeInput{Name: "Finance"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for non-member, got %v", err)
	}
}

func TestCreateMoveValidatesTypeAndUnits(t *testing.T) {
	svc := newTestService(&fakeStore{})

	cases := []struct {
		name  string
		input MoveInput
		valid bool
	}{
		{"unknown type", MoveInput{Type: "sideways"}, false},
		{"move-in without unit", MoveInput{Type: "move-in"}, false},
		{"move-in", MoveInput{Type: "move-in", InUnitID: strPtr("unit_1")}, true},
		{"move-out", MoveInput{Type: "move-out", OutUnitID: strPtr("unit_1")}, true},
		{"internal missing one side", MoveInput{Type: "internal-move", InUnitID: strPtr("unit_2")}, false},
		{"internal", MoveInput{Type: "internal-move", InUnitID: strPtr("unit_2"), OutUnitID: strPtr("unit_1")}, true},
	}

	for _, tc := range cases {
		_, err := svc.CreateMove(context.Background(), superSession(), tc.input)
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}
}

func TestCreateBlockRepresentativeValidatesRole(t *testing.T) {
	fs := &fakeStore{
		getPersonFn: func(_ context.Context, id string) (store.Person, error) {
			return store.Person{ID: id}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateBlockRepresentative(context.Background(), superSession(), 1701, "person_1", "treasurer")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected role rejection, got %v", err)
	}

	payload, err := svc.CreateBlockRepresentative(context.Background(), superSession(), 1701, "person_1", "roof monitor")
	if err != nil {
		t.Fatalf("CreateBlockRepresentative failed: %v", err)
	}
	if payload["blockNumber"] != 1701 {
		t.Errorf("blockNumber = %v", payload["blockNumber"])
	}
}
