package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Forum listings carry per-forum totals and the newest post so the
// service can order partitions by activity without extra round trips.
func (s *PostgresStore) ListForums(ctx context.Context) ([]Forum, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.name, f.url_name, f.description,
			f.creator_id, f.modifier_id, f.created_at, f.updated_at,
			c.id, COALESCE(c.name, ''),
			(SELECT COUNT(*) FROM threads t WHERE t.forum_id = f.id),
			(SELECT COUNT(*) FROM posts p JOIN threads t ON t.id = p.thread_id WHERE t.forum_id = f.id)
		FROM forums f
		LEFT JOIN committees c ON c.forum_id = f.id
		ORDER BY f.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list forums: %w", err)
	}
	defer rows.Close()

	items := make([]Forum, 0)
	for rows.Next() {
		var f Forum
		if err := rows.Scan(&f.ID, &f.Name, &f.URLName, &f.Description,
			&f.CreatorID, &f.ModifierID, &f.CreatedAt, &f.UpdatedAt,
			&f.CommitteeID, &f.CommitteeName, &f.ThreadCount, &f.PostCount); err != nil {
			return nil, fmt.Errorf("scan forum: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forums: %w", err)
	}

	for i := range items {
		last, err := s.latestForumPost(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].LastPost = last
	}
	return items, nil
}

func (s *PostgresStore) latestForumPost(ctx context.Context, forumID string) (*PostSummary, error) {
	var ps PostSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.thread_id, p.subject, COALESCE(NULLIF(u.display_name, ''), 'unknown'), p.created_at
		FROM posts p
		JOIN threads t ON t.id = p.thread_id
		LEFT JOIN users u ON u.id = p.creator_id
		WHERE t.forum_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT 1
	`, forumID).Scan(&ps.ID, &ps.ThreadID, &ps.Subject, &ps.AuthorName, &ps.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest forum post: %w", err)
	}
	return &ps, nil
}

const forumColumns = `id, name, url_name, description, creator_id, modifier_id, created_at, updated_at`

func scanForum(row interface{ Scan(...any) error }) (Forum, error) {
	var f Forum
	err := row.Scan(&f.ID, &f.Name, &f.URLName, &f.Description, &f.CreatorID, &f.ModifierID, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (s *PostgresStore) GetForum(ctx context.Context, forumID string) (Forum, error) {
	return scanForum(s.db.QueryRowContext(ctx, `SELECT `+forumColumns+` FROM forums WHERE id=$1`, forumID))
}

func (s *PostgresStore) GetForumBySlug(ctx context.Context, urlName string) (Forum, error) {
	return scanForum(s.db.QueryRowContext(ctx, `SELECT `+forumColumns+` FROM forums WHERE url_name=$1`, urlName))
}

func (s *PostgresStore) InsertForum(ctx context.Context, f Forum) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forums (id, name, url_name, description, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, f.ID, f.Name, f.URLName, f.Description, f.CreatorID)
	if err != nil {
		return asDuplicate(fmt.Errorf("insert forum: %w", err), "forum", f.Name)
	}
	return nil
}

func (s *PostgresStore) UpdateForum(ctx context.Context, f Forum) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE forums
		SET name=$2, url_name=$3, description=$4, modifier_id=$5, updated_at=NOW()
		WHERE id=$1
	`, f.ID, f.Name, f.URLName, f.Description, f.ModifierID)
	if err != nil {
		return asDuplicate(fmt.Errorf("update forum: %w", err), "forum", f.Name)
	}
	return nil
}

func (s *PostgresStore) ListForumThreads(ctx context.Context, forumID string) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.forum_id, t.subject, t.url_subject, t.views,
			t.creator_id, t.modifier_id, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM posts p WHERE p.thread_id = t.id)
		FROM threads t
		WHERE t.forum_id = $1
		ORDER BY t.created_at DESC
	`, forumID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	items := make([]Thread, 0)
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.ForumID, &t.Subject, &t.URLSubject, &t.Views,
			&t.CreatorID, &t.ModifierID, &t.CreatedAt, &t.UpdatedAt, &t.PostCount); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}

	for i := range items {
		last, err := s.latestThreadPost(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].LastPost = last
	}
	return items, nil
}

func (s *PostgresStore) latestThreadPost(ctx context.Context, threadID string) (*PostSummary, error) {
	var ps PostSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.thread_id, p.subject, COALESCE(NULLIF(u.display_name, ''), 'unknown'), p.created_at
		FROM posts p
		LEFT JOIN users u ON u.id = p.creator_id
		WHERE p.thread_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT 1
	`, threadID).Scan(&ps.ID, &ps.ThreadID, &ps.Subject, &ps.AuthorName, &ps.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest thread post: %w", err)
	}
	return &ps, nil
}

const threadColumns = `id, forum_id, subject, url_subject, views, creator_id, modifier_id, created_at, updated_at`

func scanThread(row interface{ Scan(...any) error }) (Thread, error) {
	var t Thread
	err := row.Scan(&t.ID, &t.ForumID, &t.Subject, &t.URLSubject, &t.Views, &t.CreatorID, &t.ModifierID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *PostgresStore) GetThread(ctx context.Context, threadID string) (Thread, error) {
	return scanThread(s.db.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads WHERE id=$1`, threadID))
}

func (s *PostgresStore) GetThreadBySlug(ctx context.Context, urlSubject string) (Thread, error) {
	return scanThread(s.db.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads WHERE url_subject=$1`, urlSubject))
}

// InsertThread writes the thread and its opening post in one
// transaction so a thread can never exist without its first post.
func (s *PostgresStore) InsertThread(ctx context.Context, t Thread, opening Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert thread: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO threads (id, forum_id, subject, url_subject, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, t.ID, t.ForumID, t.Subject, t.URLSubject, t.CreatorID); err != nil {
		_ = tx.Rollback()
		return asDuplicate(fmt.Errorf("insert thread: %w", err), "thread", t.Subject)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO posts (id, thread_id, subject, body, reply_to_id, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, NULL, $5, $5)
	`, opening.ID, t.ID, opening.Subject, opening.Body, opening.CreatorID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert opening post: %w", err)
	}
	return tx.Commit()
}

// BumpThreadViews increments the view counter in place and returns the
// new count.
func (s *PostgresStore) BumpThreadViews(ctx context.Context, threadID string) (int, error) {
	var views int
	err := s.db.QueryRowContext(ctx, `
		UPDATE threads SET views = views + 1 WHERE id=$1 RETURNING views
	`, threadID).Scan(&views)
	if err != nil {
		return 0, err
	}
	return views, nil
}

const postColumns = `p.id, p.thread_id, p.subject, p.body, p.reply_to_id, p.creator_id, p.modifier_id, p.created_at, p.updated_at`

func (s *PostgresStore) ListThreadPosts(ctx context.Context, threadID string) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`, COALESCE(NULLIF(u.display_name, ''), 'unknown')
		FROM posts p
		LEFT JOIN users u ON u.id = p.creator_id
		WHERE p.thread_id = $1
		ORDER BY p.created_at, p.id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.Subject, &p.Body, &p.ReplyToID,
			&p.CreatorID, &p.ModifierID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, postID string) (Post, error) {
	var p Post
	err := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`, COALESCE(NULLIF(u.display_name, ''), 'unknown')
		FROM posts p
		LEFT JOIN users u ON u.id = p.creator_id
		WHERE p.id=$1
	`, postID).Scan(&p.ID, &p.ThreadID, &p.Subject, &p.Body, &p.ReplyToID,
		&p.CreatorID, &p.ModifierID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *PostgresStore) InsertPost(ctx context.Context, p Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, thread_id, subject, body, reply_to_id, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, p.ID, p.ThreadID, p.Subject, p.Body, p.ReplyToID, p.CreatorID)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, p Post) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET subject=$2, body=$3, reply_to_id=$4, modifier_id=$5, updated_at=NOW()
		WHERE id=$1
	`, p.ID, p.Subject, p.Body, p.ReplyToID, p.ModifierID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}
