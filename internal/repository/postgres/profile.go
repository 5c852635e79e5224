package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/storefront/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

// ProfileRepository keeps one JSONB document per identity.
type ProfileRepository struct {
	db *Connection
}

// NewProfileRepository creates a ProfileStore on db.
func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

func (r *ProfileRepository) Get(ctx context.Context, uid string) (model.Profile, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM profiles WHERE uid = $1`, uid).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return decodeProfile(uid, data)
}

// Create writes the whole document, replacing an existing one.
func (r *ProfileRepository) Create(ctx context.Context, profile model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	query := `INSERT INTO profiles (uid, data, created_at, updated_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (uid) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query, profile.UID, data, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// Update merges the changed fields into the stored document.
func (r *ProfileRepository) Update(ctx context.Context, uid string, update model.ProfileUpdate) (model.Profile, error) {
	patch, err := profilePatch(update, time.Now())
	if err != nil {
		return model.Profile{}, err
	}

	query := `UPDATE profiles
			  SET data = data || $2::jsonb, updated_at = now()
			  WHERE uid = $1
			  RETURNING data`

	var data []byte
	err = r.db.QueryRow(ctx, query, uid, patch).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return decodeProfile(uid, data)
}

func profilePatch(update model.ProfileUpdate, now time.Time) ([]byte, error) {
	patch := map[string]any{"updated_at": now.UTC()}
	if update.DisplayName != nil {
		patch["name"] = *update.DisplayName
	}
	if update.PhotoURL != nil {
		patch["photo_url"] = *update.PhotoURL
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile patch: %w", err)
	}
	return data, nil
}

func decodeProfile(uid string, data []byte) (model.Profile, error) {
	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.UID = uid
	return p, nil
}
