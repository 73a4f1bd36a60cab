// Package store is the Postgres persistence layer for users, preference
// profiles and saved articles. The enrichment core only reads preferences
// from here; writes go through the router, which also invalidates the feed
// cache.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/curately/curately/internal/apperr"
	"github.com/curately/curately/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return &Store{db: pool}, nil
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, created_at FROM users WHERE external_id = $1`,
		userID,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NewNotFound("user")
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetPreferences returns the user's profile, or a zero profile when none has
// been set yet. A missing user is a NotFoundError.
func (s *Store) GetPreferences(ctx context.Context, userID string) (domain.PreferenceProfile, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT preferences FROM users WHERE external_id = $1`,
		userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PreferenceProfile{}, apperr.NewNotFound("user")
	}
	if err != nil {
		return domain.PreferenceProfile{}, err
	}
	if len(raw) == 0 {
		return domain.PreferenceProfile{}, nil
	}

	var profile domain.PreferenceProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.PreferenceProfile{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return profile, nil
}

// UpdatePreferences replaces the stored profile wholesale.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, profile domain.PreferenceProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE users SET preferences = $2, updated_at = now() WHERE external_id = $1`,
		userID, raw,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("user")
	}
	return nil
}

type SavedArticle struct {
	ID      uuid.UUID              `json:"id"`
	Article domain.EnrichedArticle `json:"article"`
	SavedAt time.Time              `json:"savedAt"`
}

func (s *Store) ListSaved(ctx context.Context, userID string) ([]SavedArticle, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, article, saved_at FROM saved_articles WHERE user_external_id = $1 ORDER BY saved_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saved []SavedArticle
	for rows.Next() {
		var (
			sa  SavedArticle
			raw []byte
		)
		if err := rows.Scan(&sa.ID, &raw, &sa.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &sa.Article); err != nil {
			return nil, fmt.Errorf("unmarshal saved article: %w", err)
		}
		saved = append(saved, sa)
	}
	return saved, rows.Err()
}

func (s *Store) SaveArticle(ctx context.Context, userID string, article domain.EnrichedArticle) (SavedArticle, error) {
	raw, err := json.Marshal(article)
	if err != nil {
		return SavedArticle{}, fmt.Errorf("marshal article: %w", err)
	}

	sa := SavedArticle{
		ID:      uuid.New(),
		Article: article,
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO saved_articles (id, user_external_id, article) VALUES ($1, $2, $3) RETURNING saved_at`,
		sa.ID, userID, raw,
	).Scan(&sa.SavedAt)
	if err != nil {
		return SavedArticle{}, err
	}
	return sa, nil
}

func (s *Store) DeleteSaved(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM saved_articles WHERE id = $1 AND user_external_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("saved article")
	}
	return nil
}
