package store

import (
	"context"
	"fmt"
)

const personColumns = `id, first_name, last_name, email, user_id, unit_id, member, committee_excused, notes, creator_id, modifier_id, created_at, updated_at`

func scanPerson(row interface{ Scan(...any) error }) (Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.UserID, &p.UnitID, &p.Member, &p.CommitteeExcused, &p.Notes, &p.CreatorID, &p.ModifierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+personColumns+`
		FROM persons
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	items := make([]Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, personID string) (Person, error) {
	return scanPerson(s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE id=$1`, personID))
}

func (s *PostgresStore) GetPersonByUserID(ctx context.Context, userID string) (Person, error) {
	return scanPerson(s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE user_id=$1`, userID))
}

func (s *PostgresStore) InsertPerson(ctx context.Context, p Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, first_name, last_name, email, user_id, unit_id, member, committee_excused, notes, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, p.ID, p.FirstName, p.LastName, p.Email, p.UserID, p.UnitID, p.Member, p.CommitteeExcused, p.Notes, p.CreatorID)
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePerson(ctx context.Context, p Person) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE persons
		SET first_name=$2, last_name=$3, email=$4, user_id=$5, unit_id=$6, member=$7, committee_excused=$8, notes=$9, modifier_id=$10, updated_at=NOW()
		WHERE id=$1
	`, p.ID, p.FirstName, p.LastName, p.Email, p.UserID, p.UnitID, p.Member, p.CommitteeExcused, p.Notes, p.ModifierID)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

// PersonDisplayName resolves a person's byline: the linked account's
// display name when one exists, otherwise the stored name, otherwise
// "unknown".
func (s *PostgresStore) PersonDisplayName(ctx context.Context, personID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(NULLIF(u.display_name, ''), NULLIF(TRIM(p.first_name || ' ' || p.last_name), ''), 'unknown')
		FROM persons p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.id=$1
	`, personID).Scan(&name)
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *PostgresStore) ListPersonChildren(ctx context.Context, personID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualifiedPersonColumns("p")+`
		FROM person_children pc
		JOIN persons p ON p.id = pc.child_id
		WHERE pc.parent_id=$1
		ORDER BY p.first_name, p.last_name
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

func (s *PostgresStore) ListPersonParents(ctx context.Context, personID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualifiedPersonColumns("p")+`
		FROM person_children pc
		JOIN persons p ON p.id = pc.parent_id
		WHERE pc.child_id=$1
		ORDER BY p.first_name, p.last_name
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("list parents: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

// IsPersonAncestor walks the parent graph upward from personID and
// reports whether candidateID appears among the ancestors (or is the
// person itself). Used to reject child links that would close a cycle.
func (s *PostgresStore) IsPersonAncestor(ctx context.Context, personID, candidateID string) (bool, error) {
	if personID == candidateID {
		return true, nil
	}
	var found bool
	err := s.db.QueryRowContext(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT parent_id FROM person_children WHERE child_id=$1
			UNION
			SELECT pc.parent_id
			FROM person_children pc
			JOIN ancestors a ON a.parent_id = pc.child_id
		)
		SELECT EXISTS(SELECT 1 FROM ancestors WHERE parent_id=$2)
	`, personID, candidateID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("walk ancestors: %w", err)
	}
	return found, nil
}

func (s *PostgresStore) AddPersonChild(ctx context.Context, parentID, childID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO person_children (parent_id, child_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, parentID, childID)
	if err != nil {
		return fmt.Errorf("add child: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemovePersonChild(ctx context.Context, parentID, childID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM person_children WHERE parent_id=$1 AND child_id=$2`, parentID, childID)
	if err != nil {
		return fmt.Errorf("remove child: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPersonPhones(ctx context.Context, personID string) ([]PhoneNumber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ph.id, ph.number, ph.phone_type, ph.creator_id, ph.modifier_id, ph.created_at, ph.updated_at
		FROM person_phone_numbers pp
		JOIN phone_numbers ph ON ph.id = pp.phone_id
		WHERE pp.person_id=$1
		ORDER BY ph.created_at
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	items := make([]PhoneNumber, 0)
	for rows.Next() {
		var ph PhoneNumber
		if err := rows.Scan(&ph.ID, &ph.Number, &ph.Type, &ph.CreatorID, &ph.ModifierID, &ph.CreatedAt, &ph.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		items = append(items, ph)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phones: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) AddPersonPhone(ctx context.Context, personID string, phone PhoneNumber) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add phone: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO phone_numbers (id, number, phone_type, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $4)
	`, phone.ID, phone.Number, phone.Type, phone.CreatorID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert phone: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO person_phone_numbers (person_id, phone_id) VALUES ($1, $2)
	`, personID, phone.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("link phone: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) RemovePersonPhone(ctx context.Context, personID, phoneID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM person_phone_numbers WHERE person_id=$1 AND phone_id=$2
	`, personID, phoneID); err != nil {
		return fmt.Errorf("unlink phone: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM phone_numbers ph
		WHERE ph.id=$1 AND NOT EXISTS (SELECT 1 FROM person_phone_numbers WHERE phone_id=$1)
	`, phoneID); err != nil {
		return fmt.Errorf("delete phone: %w", err)
	}
	return nil
}

const unitColumns = `id, block_number, unit_number, bedrooms, bathrooms, notes, page_content, creator_id, modifier_id, created_at, updated_at`

func scanUnit(row interface{ Scan(...any) error }) (Unit, error) {
	var u Unit
	err := row.Scan(&u.ID, &u.BlockNumber, &u.UnitNumber, &u.Bedrooms, &u.Bathrooms, &u.Notes, &u.PageContent, &u.CreatorID, &u.ModifierID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) ListUnits(ctx context.Context) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+unitColumns+` FROM units ORDER BY block_number, unit_number
	`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	items := make([]Unit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetUnit(ctx context.Context, unitID string) (Unit, error) {
	return scanUnit(s.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE id=$1`, unitID))
}

func (s *PostgresStore) GetUnitByNumbers(ctx context.Context, blockNumber, unitNumber int) (Unit, error) {
	return scanUnit(s.db.QueryRowContext(ctx, `
		SELECT `+unitColumns+` FROM units WHERE block_number=$1 AND unit_number=$2
	`, blockNumber, unitNumber))
}

func (s *PostgresStore) InsertUnit(ctx context.Context, u Unit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, block_number, unit_number, bedrooms, bathrooms, notes, page_content, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, u.ID, u.BlockNumber, u.UnitNumber, u.Bedrooms, u.Bathrooms, u.Notes, u.PageContent, u.CreatorID)
	if err != nil {
		return asDuplicate(fmt.Errorf("insert unit: %w", err), "unit", fmt.Sprintf("%d-%d", u.BlockNumber, u.UnitNumber))
	}
	return nil
}

func (s *PostgresStore) UpdateUnit(ctx context.Context, u Unit) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE units
		SET bedrooms=$2, bathrooms=$3, notes=$4, page_content=$5, modifier_id=$6, updated_at=NOW()
		WHERE id=$1
	`, u.ID, u.Bedrooms, u.Bathrooms, u.Notes, u.PageContent, u.ModifierID)
	if err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUnitOccupants(ctx context.Context, unitID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+personColumns+` FROM persons WHERE unit_id=$1 ORDER BY last_name, first_name
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("list occupants: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

const committeeColumns = `id, name, url_name, chair_id, forum_id, description, creator_id, modifier_id, created_at, updated_at`

func scanCommittee(row interface{ Scan(...any) error }) (Committee, error) {
	var c Committee
	err := row.Scan(&c.ID, &c.Name, &c.URLName, &c.ChairID, &c.ForumID, &c.Description, &c.CreatorID, &c.ModifierID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) ListCommittees(ctx context.Context) ([]Committee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ` + committeeColumns + ` FROM committees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	defer rows.Close()

	items := make([]Committee, 0)
	for rows.Next() {
		c, err := scanCommittee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan committee: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate committees: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetCommittee(ctx context.Context, committeeID string) (Committee, error) {
	return scanCommittee(s.db.QueryRowContext(ctx, `SELECT `+committeeColumns+` FROM committees WHERE id=$1`, committeeID))
}

func (s *PostgresStore) GetCommitteeBySlug(ctx context.Context, urlName string) (Committee, error) {
	return scanCommittee(s.db.QueryRowContext(ctx, `SELECT `+committeeColumns+` FROM committees WHERE url_name=$1`, urlName))
}

func (s *PostgresStore) InsertCommittee(ctx context.Context, c Committee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO committees (id, name, url_name, chair_id, forum_id, description, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, c.ID, c.Name, c.URLName, c.ChairID, c.ForumID, c.Description, c.CreatorID)
	if err != nil {
		return asDuplicate(fmt.Errorf("insert committee: %w", err), "committee", c.Name)
	}
	return nil
}

func (s *PostgresStore) UpdateCommittee(ctx context.Context, c Committee) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE committees
		SET name=$2, url_name=$3, chair_id=$4, description=$5, modifier_id=$6, updated_at=NOW()
		WHERE id=$1
	`, c.ID, c.Name, c.URLName, c.ChairID, c.Description, c.ModifierID)
	if err != nil {
		return asDuplicate(fmt.Errorf("update committee: %w", err), "committee", c.Name)
	}
	return nil
}

func (s *PostgresStore) ListCommitteeMembers(ctx context.Context, committeeID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualifiedPersonColumns("p")+`
		FROM committee_members cm
		JOIN persons p ON p.id = cm.person_id
		WHERE cm.committee_id=$1
		ORDER BY p.last_name, p.first_name
	`, committeeID)
	if err != nil {
		return nil, fmt.Errorf("list committee members: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

func (s *PostgresStore) SetCommitteeMembers(ctx context.Context, committeeID string, personIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM committee_members WHERE committee_id=$1`, committeeID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear members: %w", err)
	}
	for _, personID := range personIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO committee_members (committee_id, person_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, committeeID, personID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("add member: %w", err)
		}
	}
	return tx.Commit()
}

const moveColumns = `id, move_type, in_unit_id, out_unit_id, move_date, notes, creator_id, modifier_id, created_at, updated_at`

func scanMove(row interface{ Scan(...any) error }) (Move, error) {
	var m Move
	err := row.Scan(&m.ID, &m.Type, &m.InUnitID, &m.OutUnitID, &m.MoveDate, &m.Notes, &m.CreatorID, &m.ModifierID, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *PostgresStore) ListMoves(ctx context.Context) ([]Move, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+moveColumns+` FROM moves ORDER BY move_date DESC NULLS LAST, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	items := make([]Move, 0)
	for rows.Next() {
		m, err := scanMove(rows)
		if err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moves: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetMove(ctx context.Context, moveID string) (Move, error) {
	return scanMove(s.db.QueryRowContext(ctx, `SELECT `+moveColumns+` FROM moves WHERE id=$1`, moveID))
}

func (s *PostgresStore) InsertMove(ctx context.Context, m Move) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moves (id, move_type, in_unit_id, out_unit_id, move_date, notes, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, m.ID, m.Type, m.InUnitID, m.OutUnitID, m.MoveDate, m.Notes, m.CreatorID)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateMove(ctx context.Context, m Move) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE moves
		SET move_type=$2, in_unit_id=$3, out_unit_id=$4, move_date=$5, notes=$6, modifier_id=$7, updated_at=NOW()
		WHERE id=$1
	`, m.ID, m.Type, m.InUnitID, m.OutUnitID, m.MoveDate, m.Notes, m.ModifierID)
	if err != nil {
		return fmt.Errorf("update move: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetMoveMovers(ctx context.Context, moveID string, personIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set movers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM move_movers WHERE move_id=$1`, moveID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear movers: %w", err)
	}
	for _, personID := range personIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO move_movers (move_id, person_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, moveID, personID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("add mover: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListMoveMovers(ctx context.Context, moveID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualifiedPersonColumns("p")+`
		FROM move_movers mm
		JOIN persons p ON p.id = mm.person_id
		WHERE mm.move_id=$1
		ORDER BY p.last_name, p.first_name
	`, moveID)
	if err != nil {
		return nil, fmt.Errorf("list movers: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

func (s *PostgresStore) ListBlockRepresentatives(ctx context.Context) ([]BlockRepresentative, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, block_number, person_id, committee_id, rep_role, creator_id, modifier_id, created_at, updated_at
		FROM block_representatives
		ORDER BY block_number, rep_role
	`)
	if err != nil {
		return nil, fmt.Errorf("list block representatives: %w", err)
	}
	defer rows.Close()

	items := make([]BlockRepresentative, 0)
	for rows.Next() {
		var r BlockRepresentative
		if err := rows.Scan(&r.ID, &r.BlockNumber, &r.PersonID, &r.CommitteeID, &r.Role, &r.CreatorID, &r.ModifierID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan block representative: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block representatives: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertBlockRepresentative(ctx context.Context, r BlockRepresentative) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO block_representatives (id, block_number, person_id, committee_id, rep_role, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, r.ID, r.BlockNumber, r.PersonID, r.CommitteeID, r.Role, r.CreatorID)
	if err != nil {
		return fmt.Errorf("insert block representative: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteBlockRepresentative(ctx context.Context, repID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM block_representatives WHERE id=$1`, repID)
	if err != nil {
		return fmt.Errorf("delete block representative: %w", err)
	}
	return nil
}

// ListMemberRows assembles the membership-list export: every member
// with a unit, resolved name, children, household phones, and
// committee assignments.
func (s *PostgresStore) ListMemberRows(ctx context.Context) ([]MemberRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT un.block_number, un.unit_number, p.id,
			COALESCE(NULLIF(u.display_name, ''), NULLIF(TRIM(p.first_name || ' ' || p.last_name), ''), 'unknown'),
			p.email, p.committee_excused
		FROM persons p
		JOIN units un ON un.id = p.unit_id
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.member = TRUE
		ORDER BY un.block_number, un.unit_number, p.last_name, p.first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list member rows: %w", err)
	}
	defer rows.Close()

	items := make([]MemberRow, 0)
	for rows.Next() {
		var row MemberRow
		if err := rows.Scan(&row.BlockNumber, &row.UnitNumber, &row.PersonID, &row.Name, &row.Email, &row.CommitteeExcused); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}

	for i := range items {
		if err := s.fillMemberRow(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *PostgresStore) fillMemberRow(ctx context.Context, row *MemberRow) error {
	children, err := s.ListPersonChildren(ctx, row.PersonID)
	if err != nil {
		return err
	}
	for _, child := range children {
		row.Children = append(row.Children, child.FirstName+" "+child.LastName)
	}

	phones, err := s.ListPersonPhones(ctx, row.PersonID)
	if err != nil {
		return err
	}
	for _, ph := range phones {
		label := ph.Number
		if ph.Type != "" {
			label = fmt.Sprintf("%s (%s)", ph.Number, ph.Type)
		}
		row.Phones = append(row.Phones, label)
	}

	committeeRows, err := s.db.QueryContext(ctx, `
		SELECT c.name, (c.chair_id = cm.person_id)
		FROM committee_members cm
		JOIN committees c ON c.id = cm.committee_id
		WHERE cm.person_id=$1
		ORDER BY c.name
	`, row.PersonID)
	if err != nil {
		return fmt.Errorf("list person committees: %w", err)
	}
	defer committeeRows.Close()
	for committeeRows.Next() {
		var name string
		var chair *bool
		if err := committeeRows.Scan(&name, &chair); err != nil {
			return fmt.Errorf("scan person committee: %w", err)
		}
		row.Committees = append(row.Committees, name)
		if chair != nil && *chair {
			row.Chairships = append(row.Chairships, name)
		}
	}
	return committeeRows.Err()
}

func qualifiedPersonColumns(alias string) string {
	return alias + ".id, " + alias + ".first_name, " + alias + ".last_name, " + alias + ".email, " +
		alias + ".user_id, " + alias + ".unit_id, " + alias + ".member, " + alias + ".committee_excused, " +
		alias + ".notes, " + alias + ".creator_id, " + alias + ".modifier_id, " + alias + ".created_at, " + alias + ".updated_at"
}

func collectPersons(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Person, error) {
	items := make([]Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return items, nil
}
