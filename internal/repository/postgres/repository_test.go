package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/storefront/internal/config"
	"github.com/dtroode/storefront/internal/model"
)

func TestNewRepositories(t *testing.T) {
	db := &Connection{}

	accounts := NewAccountRepository(db)
	profiles := NewProfileRepository(db)

	assert.Equal(t, db, accounts.db)
	assert.Equal(t, db, profiles.db)
}

func TestConnection_NilPool(t *testing.T) {
	c := &Connection{}

	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(t.Context()))
}

func TestPoolConfig(t *testing.T) {
	const dsn = "postgres://u:p@localhost:5432/db?sslmode=disable"

	tests := []struct {
		name      string
		cfg       config.Database
		wantMax   int32
		wantMin   int32
		wantIdle  time.Duration
		wantDial  time.Duration
		wantError bool
	}{
		{
			name:     "limits applied",
			cfg:      config.Database{DSN: dsn, MaxConns: 25, MinConns: 2, MaxConnIdleTime: 30 * time.Second, ConnectTimeout: time.Second},
			wantMax:  25,
			wantMin:  2,
			wantIdle: 30 * time.Second,
			wantDial: time.Second,
		},
		{
			name:     "dsn pool settings kept when unset",
			cfg:      config.Database{DSN: dsn + "&pool_max_conns=7"},
			wantMax:  7,
			wantIdle: 30 * time.Minute,
		},
		{
			name:      "min above max",
			cfg:       config.Database{DSN: dsn, MaxConns: 2, MinConns: 3},
			wantError: true,
		},
		{
			name:      "bad dsn",
			cfg:       config.Database{DSN: "postgres://%zz"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := poolConfig(tt.cfg)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, pc.MaxConns)
			assert.Equal(t, tt.wantMin, pc.MinConns)
			assert.Equal(t, tt.wantIdle, pc.MaxConnIdleTime)
			assert.Equal(t, tt.wantDial, pc.ConnConfig.ConnectTimeout)
		})
	}
}

func TestProfilePatch(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	name, photo := "Ana", "https://img.example.com/a.png"

	tests := []struct {
		name   string
		update model.ProfileUpdate
		want   map[string]any
	}{
		{
			name:   "empty update only touches timestamp",
			update: model.ProfileUpdate{},
			want:   map[string]any{"updated_at": "2025-03-01T12:00:00Z"},
		},
		{
			name:   "name and photo",
			update: model.ProfileUpdate{DisplayName: &name, PhotoURL: &photo},
			want:   map[string]any{"updated_at": "2025-03-01T12:00:00Z", "name": name, "photo_url": photo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := profilePatch(tt.update, now)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeProfile(t *testing.T) {
	p, err := decodeProfile("u-1", []byte(`{"name":"Ana","is_admin":true,"role":"user","unknown":1}`))
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UID)
	assert.Equal(t, "Ana", p.Name)
	assert.True(t, p.IsAdmin)

	_, err = decodeProfile("u-1", []byte(`not json`))
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
