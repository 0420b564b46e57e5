package store

import (
	"context"
	"encoding/json"
	"fmt"
)

const pageColumns = `id, title, url_title, content, public, editable, trusted, creator_id, modifier_id, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.Title, &p.URLTitle, &p.Content, &p.Public, &p.Editable, &p.Trusted, &p.CreatorID, &p.ModifierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ` + pageColumns + ` FROM pages ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	items := make([]Page, 0)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetPage(ctx context.Context, pageID string) (Page, error) {
	return scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id=$1`, pageID))
}

func (s *PostgresStore) GetPageBySlug(ctx context.Context, urlTitle string) (Page, error) {
	return scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE url_title=$1`, urlTitle))
}

func (s *PostgresStore) InsertPage(ctx context.Context, p Page) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, title, url_title, content, public, editable, trusted, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, p.ID, p.Title, p.URLTitle, p.Content, p.Public, p.Editable, p.Trusted, p.CreatorID)
	if err != nil {
		return asDuplicate(fmt.Errorf("insert page: %w", err), "page", p.Title)
	}
	return nil
}

func (s *PostgresStore) UpdatePage(ctx context.Context, p Page) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET title=$2, url_title=$3, content=$4, public=$5, editable=$6, trusted=$7, modifier_id=$8, updated_at=NOW()
		WHERE id=$1
	`, p.ID, p.Title, p.URLTitle, p.Content, p.Public, p.Editable, p.Trusted, p.ModifierID)
	if err != nil {
		return asDuplicate(fmt.Errorf("update page: %w", err), "page", p.Title)
	}
	return nil
}

const fileColumns = `id, name, description, content_type, size, public, object_path, creator_id, modifier_id, created_at, updated_at`

func scanFile(row interface{ Scan(...any) error }) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.ContentType, &f.Size, &f.Public, &f.ObjectPath, &f.CreatorID, &f.ModifierID, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (s *PostgresStore) ListFiles(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ` + fileColumns + ` FROM files ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	items := make([]File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetFile(ctx context.Context, fileID string) (File, error) {
	return scanFile(s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, fileID))
}

func (s *PostgresStore) GetFileByName(ctx context.Context, name string) (File, error) {
	return scanFile(s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE name=$1`, name))
}

func (s *PostgresStore) InsertFile(ctx context.Context, f File) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, name, description, content_type, size, public, object_path, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, f.ID, f.Name, f.Description, f.ContentType, f.Size, f.Public, f.ObjectPath, f.CreatorID)
	if err != nil {
		return asDuplicate(fmt.Errorf("insert file: %w", err), "file", f.Name)
	}
	return nil
}

func (s *PostgresStore) UpdateFile(ctx context.Context, f File) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files
		SET name=$2, description=$3, public=$4, modifier_id=$5, updated_at=NOW()
		WHERE id=$1
	`, f.ID, f.Name, f.Description, f.Public, f.ModifierID)
	if err != nil {
		return asDuplicate(fmt.Errorf("update file: %w", err), "file", f.Name)
	}
	return nil
}

func (s *PostgresStore) DeleteFile(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, fileID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Settings lives in a single fixed row so reads never race an
// insert; the migration seeds id 1.
func (s *PostgresStore) GetSettings(ctx context.Context) (Settings, error) {
	var st Settings
	var publicPages, memberPages []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT public_page_ids, member_page_ids, home_page_id, coop_name, news, modifier_id, updated_at
		FROM application_settings
		WHERE id=1
	`).Scan(&publicPages, &memberPages, &st.HomePageID, &st.CoopName, &st.News, &st.ModifierID, &st.UpdatedAt)
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(publicPages, &st.PublicPageIDs); err != nil {
		return Settings{}, fmt.Errorf("decode public page ids: %w", err)
	}
	if err := json.Unmarshal(memberPages, &st.MemberPageIDs); err != nil {
		return Settings{}, fmt.Errorf("decode member page ids: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, st Settings) error {
	publicPages, err := json.Marshal(st.PublicPageIDs)
	if err != nil {
		return fmt.Errorf("encode public page ids: %w", err)
	}
	memberPages, err := json.Marshal(st.MemberPageIDs)
	if err != nil {
		return fmt.Errorf("encode member page ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE application_settings
		SET public_page_ids=$1, member_page_ids=$2, home_page_id=$3, coop_name=$4, news=$5, modifier_id=$6, updated_at=NOW()
		WHERE id=1
	`, publicPages, memberPages, st.HomePageID, st.CoopName, st.News, st.ModifierID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
