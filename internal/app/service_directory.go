package app

import (
	"context"
	"strings"
	"time"

	"commonroof/api/internal/policy"
	"commonroof/api/internal/slug"
	"commonroof/api/internal/store"
	"commonroof/api/internal/util"
)

var moveTypes = map[string]struct{}{
	"move-in":       {},
	"move-out":      {},
	"internal-move": {},
}

var repRoles = map[string]struct{}{
	"roof monitor": {},
	"maintenance":  {},
}

type PersonInput struct {
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Email            string  `json:"email"`
	UnitID           *string `json:"unitId"`
	Member           bool    `json:"member"`
	CommitteeExcused bool    `json:"committeeExcused"`
	Notes            string  `json:"notes"`
}

type UnitInput struct {
	BlockNumber int    `json:"blockNumber"`
	UnitNumber  int    `json:"unitNumber"`
	Bedrooms    *int   `json:"bedrooms"`
	Bathrooms   *int   `json:"bathrooms"`
	Notes       string `json:"notes"`
	PageContent string `json:"pageContent"`
}

type CommitteeInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ChairID     *string `json:"chairId"`
	MemberIDs   []string `json:"memberIds"`
}

type MoveInput struct {
	Type      string     `json:"type"`
	InUnitID  *string    `json:"inUnitId"`
	OutUnitID *string    `json:"outUnitId"`
	MoveDate  *time.Time `json:"moveDate"`
	Notes     string     `json:"notes"`
	MoverIDs  []string   `json:"moverIds"`
}

func (s *Service) ListMembers(ctx context.Context, session Session) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(persons))
	for _, p := range persons {
		items = append(items, personPayload(p))
	}
	return map[string]any{"members": items}, nil
}

func (s *Service) GetMember(ctx context.Context, session Session, personID string) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	payload := personPayload(person)

	children, err := s.store.ListPersonChildren(ctx, personID)
	if err != nil {
		return nil, err
	}
	payload["children"] = personPayloads(children)

	parents, err := s.store.ListPersonParents(ctx, personID)
	if err != nil {
		return nil, err
	}
	payload["parents"] = personPayloads(parents)

	phones, err := s.store.ListPersonPhones(ctx, personID)
	if err != nil {
		return nil, err
	}
	phonePayloads := make([]map[string]any, 0, len(phones))
	for _, ph := range phones {
		phonePayloads = append(phonePayloads, map[string]any{
			"id":     ph.ID,
			"number": ph.Number,
			"type":   ph.Type,
		})
	}
	payload["phoneNumbers"] = phonePayloads

	if person.UnitID != nil {
		unit, err := s.store.GetUnit(ctx, *person.UnitID)
		if err == nil {
			payload["unit"] = unitPayload(unit)
		}
	}
	return payload, nil
}

func (s *Service) CreateMember(ctx context.Context, session Session, input PersonInput) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	if strings.TrimSpace(input.FirstName) == "" && strings.TrimSpace(input.LastName) == "" {
		return nil, validationError("a name is required", nil)
	}

	person := store.Person{
		ID:               util.NewID("person"),
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Email:            strings.TrimSpace(input.Email),
		UnitID:           input.UnitID,
		Member:           input.Member,
		CommitteeExcused: input.CommitteeExcused,
		Notes:            input.Notes,
	}
	person.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertPerson(ctx, person); err != nil {
		return nil, err
	}
	return personPayload(person), nil
}

func (s *Service) UpdateMember(ctx context.Context, session Session, personID string, input PersonInput) (map[string]any, error) {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditPerson(session.Actor(), person.ID) {
		return nil, forbidden()
	}

	person.FirstName = strings.TrimSpace(input.FirstName)
	person.LastName = strings.TrimSpace(input.LastName)
	person.Email = strings.TrimSpace(input.Email)
	person.Notes = input.Notes
	// Membership status and unit assignment are administrative facts;
	// self-service edits cannot change them.
	if session.Superuser {
		person.UnitID = input.UnitID
		person.Member = input.Member
		person.CommitteeExcused = input.CommitteeExcused
	}
	person.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdatePerson(ctx, person); err != nil {
		return nil, err
	}
	return personPayload(person), nil
}

// Profile returns the directory entry linked to the signed-in account.
func (s *Service) Profile(ctx context.Context, session Session) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	if session.PersonID == "" {
		return nil, notFound("No directory entry is linked to this account")
	}
	return s.GetMember(ctx, session, session.PersonID)
}

func (s *Service) AddMemberChild(ctx context.Context, session Session, parentID, childID string) error {
	parent, err := s.store.GetPerson(ctx, parentID)
	if err != nil {
		return err
	}
	if !policy.CanEditPerson(session.Actor(), parent.ID) {
		return forbidden()
	}
	if _, err := s.store.GetPerson(ctx, childID); err != nil {
		return err
	}

	// Reject a link that would close a cycle: the child must not
	// already be an ancestor of the parent (or the parent itself).
	cyclic, err := s.store.IsPersonAncestor(ctx, parentID, childID)
	if err != nil {
		return err
	}
	if cyclic {
		return validationError("this link would make a person their own ancestor", map[string]any{"childId": childID})
	}
	return s.store.AddPersonChild(ctx, parentID, childID)
}

func (s *Service) RemoveMemberChild(ctx context.Context, session Session, parentID, childID string) error {
	parent, err := s.store.GetPerson(ctx, parentID)
	if err != nil {
		return err
	}
	if !policy.CanEditPerson(session.Actor(), parent.ID) {
		return forbidden()
	}
	return s.store.RemovePersonChild(ctx, parentID, childID)
}

func (s *Service) AddMemberPhone(ctx context.Context, session Session, personID, number, phoneType string) (map[string]any, error) {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditPerson(session.Actor(), person.ID) {
		return nil, forbidden()
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, validationError("phone number is required", nil)
	}
	switch phoneType {
	case "", "cell", "home":
	default:
		return nil, validationError("phone type must be cell, home, or blank", map[string]any{"type": phoneType})
	}

	phone := store.PhoneNumber{
		ID:     util.NewID("phone"),
		Number: number,
		Type:   phoneType,
	}
	phone.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.AddPersonPhone(ctx, personID, phone); err != nil {
		return nil, err
	}
	return map[string]any{"id": phone.ID, "number": phone.Number, "type": phone.Type}, nil
}

func (s *Service) RemoveMemberPhone(ctx context.Context, session Session, personID, phoneID string) error {
	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	if !policy.CanEditPerson(session.Actor(), person.ID) {
		return forbidden()
	}
	return s.store.RemovePersonPhone(ctx, personID, phoneID)
}

func (s *Service) ListUnits(ctx context.Context, session Session) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	units, err := s.store.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(units))
	for _, u := range units {
		items = append(items, unitPayload(u))
	}
	return map[string]any{"units": items}, nil
}

func (s *Service) GetUnit(ctx context.Context, session Session, unitID string) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	occupants, err := s.store.ListUnitOccupants(ctx, unitID)
	if err != nil {
		return nil, err
	}
	payload := unitPayload(unit)
	payload["occupants"] = personPayloads(occupants)
	return payload, nil
}

func (s *Service) CreateUnit(ctx context.Context, session Session, input UnitInput) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	unit := store.Unit{
		ID:          util.NewID("unit"),
		BlockNumber: input.BlockNumber,
		UnitNumber:  input.UnitNumber,
		Bedrooms:    input.Bedrooms,
		Bathrooms:   input.Bathrooms,
		Notes:       input.Notes,
		PageContent: input.PageContent,
	}
	unit.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unitPayload(unit), nil
}

func (s *Service) UpdateUnit(ctx context.Context, session Session, unitID string, input UnitInput) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	unit.Bedrooms = input.Bedrooms
	unit.Bathrooms = input.Bathrooms
	unit.Notes = input.Notes
	unit.PageContent = input.PageContent
	unit.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdateUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unitPayload(unit), nil
}

func (s *Service) ListCommittees(ctx context.Context, session Session) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	committees, err := s.store.ListCommittees(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(committees))
	for _, c := range committees {
		items = append(items, committeePayload(c))
	}
	return map[string]any{"committees": items}, nil
}

func (s *Service) GetCommitteeBySlug(ctx context.Context, session Session, committeeSlug string) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	committee, err := s.store.GetCommitteeBySlug(ctx, committeeSlug)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListCommitteeMembers(ctx, committee.ID)
	if err != nil {
		return nil, err
	}
	payload := committeePayload(committee)
	payload["members"] = personPayloads(members)
	return payload, nil
}

// CreateCommittee also creates the committee's dedicated forum so the
// discussion space exists from day one.
func (s *Service) CreateCommittee(ctx context.Context, session Session, input CommitteeInput) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	name := strings.TrimSpace(input.Name)
	urlName := slug.Make(name)
	if name == "" || urlName == "" {
		return nil, validationError("name must contain letters or digits", map[string]any{"name": name})
	}

	forum := store.Forum{
		ID:          util.NewID("forum"),
		Name:        name,
		URLName:     urlName,
		Description: "Discussion space for the " + name + " committee.",
	}
	forum.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertForum(ctx, forum); err != nil {
		return nil, err
	}

	committee := store.Committee{
		ID:          util.NewID("com"),
		Name:        name,
		URLName:     urlName,
		ChairID:     input.ChairID,
		ForumID:     &forum.ID,
		Description: strings.TrimSpace(input.Description),
	}
	committee.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertCommittee(ctx, committee); err != nil {
		return nil, err
	}

	if len(input.MemberIDs) > 0 {
		if err := s.store.SetCommitteeMembers(ctx, committee.ID, input.MemberIDs); err != nil {
			return nil, err
		}
	}
	return committeePayload(committee), nil
}

func (s *Service) UpdateCommittee(ctx context.Context, session Session, committeeID string, input CommitteeInput) (map[string]any, error) {
	committee, err := s.store.GetCommittee(ctx, committeeID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListCommitteeMembers(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	if !policy.CanEditCommittee(session.Actor(), memberIDs) {
		return nil, forbidden()
	}

	name := strings.TrimSpace(input.Name)
	urlName := slug.Make(name)
	if name == "" || urlName == "" {
		return nil, validationError("name must contain letters or digits", map[string]any{"name": name})
	}

	committee.Name = name
	committee.URLName = urlName
	committee.ChairID = input.ChairID
	committee.Description = strings.TrimSpace(input.Description)
	committee.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdateCommittee(ctx, committee); err != nil {
		return nil, err
	}

	if input.MemberIDs != nil {
		if err := s.store.SetCommitteeMembers(ctx, committeeID, input.MemberIDs); err != nil {
			return nil, err
		}
	}
	return committeePayload(committee), nil
}

func (s *Service) ListMoves(ctx context.Context, session Session) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	moves, err := s.store.ListMoves(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(moves))
	for _, m := range moves {
		items = append(items, movePayload(m))
	}
	return map[string]any{"moves": items}, nil
}

func (s *Service) GetMove(ctx context.Context, session Session, moveID string) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	move, err := s.store.GetMove(ctx, moveID)
	if err != nil {
		return nil, err
	}
	movers, err := s.store.ListMoveMovers(ctx, moveID)
	if err != nil {
		return nil, err
	}
	payload := movePayload(move)
	payload["movers"] = personPayloads(movers)
	return payload, nil
}

func (s *Service) CreateMove(ctx context.Context, session Session, input MoveInput) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	if err := validateMove(input); err != nil {
		return nil, err
	}

	move := store.Move{
		ID:        util.NewID("move"),
		Type:      input.Type,
		InUnitID:  input.InUnitID,
		OutUnitID: input.OutUnitID,
		MoveDate:  input.MoveDate,
		Notes:     input.Notes,
	}
	move.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertMove(ctx, move); err != nil {
		return nil, err
	}
	if len(input.MoverIDs) > 0 {
		if err := s.store.SetMoveMovers(ctx, move.ID, input.MoverIDs); err != nil {
			return nil, err
		}
	}
	return movePayload(move), nil
}

func (s *Service) UpdateMove(ctx context.Context, session Session, moveID string, input MoveInput) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	if err := validateMove(input); err != nil {
		return nil, err
	}
	move, err := s.store.GetMove(ctx, moveID)
	if err != nil {
		return nil, err
	}
	move.Type = input.Type
	move.InUnitID = input.InUnitID
	move.OutUnitID = input.OutUnitID
	move.MoveDate = input.MoveDate
	move.Notes = input.Notes
	move.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdateMove(ctx, move); err != nil {
		return nil, err
	}
	if input.MoverIDs != nil {
		if err := s.store.SetMoveMovers(ctx, moveID, input.MoverIDs); err != nil {
			return nil, err
		}
	}
	return movePayload(move), nil
}

func validateMove(input MoveInput) error {
	if _, ok := moveTypes[input.Type]; !ok {
		return validationError("type must be move-in, move-out, or internal-move", map[string]any{"type": input.Type})
	}
	switch input.Type {
	case "move-in":
		if input.InUnitID == nil {
			return validationError("move-in requires a destination unit", nil)
		}
	case "move-out":
		if input.OutUnitID == nil {
			return validationError("move-out requires a source unit", nil)
		}
	case "internal-move":
		if input.InUnitID == nil || input.OutUnitID == nil {
			return validationError("internal-move requires both units", nil)
		}
	}
	return nil
}

func (s *Service) ListBlockRepresentatives(ctx context.Context, session Session) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	reps, err := s.store.ListBlockRepresentatives(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(reps))
	for _, r := range reps {
		name, err := s.store.PersonDisplayName(ctx, r.PersonID)
		if err != nil {
			return nil, err
		}
		items = append(items, map[string]any{
			"id":          r.ID,
			"blockNumber": r.BlockNumber,
			"personId":    r.PersonID,
			"personName":  name,
			"role":        r.Role,
		})
	}
	return map[string]any{"representatives": items}, nil
}

func (s *Service) CreateBlockRepresentative(ctx context.Context, session Session, blockNumber int, personID, role string) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	if _, ok := repRoles[role]; !ok {
		return nil, validationError("role must be roof monitor or maintenance", map[string]any{"role": role})
	}
	if _, err := s.store.GetPerson(ctx, personID); err != nil {
		return nil, err
	}

	rep := store.BlockRepresentative{
		ID:          util.NewID("rep"),
		BlockNumber: blockNumber,
		PersonID:    personID,
		Role:        role,
	}
	rep.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertBlockRepresentative(ctx, rep); err != nil {
		return nil, err
	}
	return map[string]any{"id": rep.ID, "blockNumber": rep.BlockNumber, "personId": rep.PersonID, "role": rep.Role}, nil
}

func (s *Service) DeleteBlockRepresentative(ctx context.Context, session Session, repID string) error {
	if !session.Superuser {
		return forbidden()
	}
	return s.store.DeleteBlockRepresentative(ctx, repID)
}

func personPayload(p store.Person) map[string]any {
	payload := map[string]any{
		"id":               p.ID,
		"firstName":        p.FirstName,
		"lastName":         p.LastName,
		"email":            p.Email,
		"member":           p.Member,
		"committeeExcused": p.CommitteeExcused,
		"notes":            p.Notes,
	}
	if p.UnitID != nil {
		payload["unitId"] = *p.UnitID
	}
	if p.UserID != nil {
		payload["userId"] = *p.UserID
	}
	return payload
}

func personPayloads(persons []store.Person) []map[string]any {
	items := make([]map[string]any, 0, len(persons))
	for _, p := range persons {
		items = append(items, personPayload(p))
	}
	return items
}

func unitPayload(u store.Unit) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"blockNumber": u.BlockNumber,
		"unitNumber":  u.UnitNumber,
		"bedrooms":    u.Bedrooms,
		"bathrooms":   u.Bathrooms,
		"notes":       u.Notes,
		"pageContent": u.PageContent,
	}
}

func committeePayload(c store.Committee) map[string]any {
	payload := map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"slug":        c.URLName,
		"description": c.Description,
	}
	if c.ChairID != nil {
		payload["chairId"] = *c.ChairID
	}
	if c.ForumID != nil {
		payload["forumId"] = *c.ForumID
	}
	return payload
}

func movePayload(m store.Move) map[string]any {
	payload := map[string]any{
		"id":    m.ID,
		"type":  m.Type,
		"notes": m.Notes,
	}
	if m.InUnitID != nil {
		payload["inUnitId"] = *m.InUnitID
	}
	if m.OutUnitID != nil {
		payload["outUnitId"] = *m.OutUnitID
	}
	if m.MoveDate != nil {
		payload["moveDate"] = m.MoveDate.UTC().Format("2006-01-02")
	}
	return payload
}
