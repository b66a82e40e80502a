package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

type storeFactory struct {
	name string
	open func(t *testing.T) CredentialStore
}

func drivers() []storeFactory {
	return []storeFactory{
		{name: "sqlite", open: func(t *testing.T) CredentialStore { return NewCredentialRepository(setupTestDB(t)) }},
		{name: "redis", open: func(t *testing.T) CredentialStore {
			client, _ := setupTestRedis(t)
			return NewRedisCredentialStore(client, "")
		}},
		{name: "memory", open: func(t *testing.T) CredentialStore { return NewMemoryCredentialStore() }},
	}
}

func newCredential(owner string, expiresIn int, now time.Time) *models.LinkedCredential {
	cred := models.NewLinkedCredential(owner, "spotify-"+owner, "access-"+owner, "refresh-"+owner, expiresIn, now)
	cred.Email = owner + "@example.com"
	cred.Scope = "user-read-email user-read-recently-played"
	return cred
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for _, d := range drivers() {
		t.Run(d.name, func(t *testing.T) {
			t.Run("Save and Get", func(t *testing.T) {
				store := d.open(t)
				cred := newCredential("u1", 3600, now)

				if err := store.Save(ctx, cred); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}

				got, err := store.Get(ctx, "u1")
				if err != nil {
					t.Fatalf("failed to get credential: %v", err)
				}
				if got.AccessToken != "access-u1" || got.RefreshToken != "refresh-u1" {
					t.Errorf("unexpected tokens: %q %q", got.AccessToken, got.RefreshToken)
				}
				if got.SecondaryUserID != "spotify-u1" || got.Email != "u1@example.com" {
					t.Errorf("unexpected account fields: %+v", got)
				}
				if !got.ExpiresAt.Equal(cred.ExpiresAt) || !got.CreatedAt.Equal(now) {
					t.Errorf("timestamps not preserved: expires %s created %s", got.ExpiresAt, got.CreatedAt)
				}
				if got.DeletedAt != nil {
					t.Error("new credential should not be deleted")
				}
			})

			t.Run("Lifetime is capped at an hour", func(t *testing.T) {
				store := d.open(t)
				if err := store.Save(ctx, newCredential("u1", 7200, now)); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}

				got, err := store.Get(ctx, "u1")
				if err != nil {
					t.Fatalf("failed to get credential: %v", err)
				}
				if lifetime := got.ExpiresAt.Sub(got.CreatedAt); lifetime != time.Hour {
					t.Errorf("stored lifetime = %s, want 1h", lifetime)
				}
			})

			t.Run("Save rejects ceiling violations", func(t *testing.T) {
				store := d.open(t)
				cred := newCredential("u1", 3600, now)
				cred.ExpiresAt = now.Add(90 * time.Minute)

				if err := store.Save(ctx, cred); !errors.Is(err, models.ErrLifetimeExceeded) {
					t.Fatalf("Save() = %v, want ErrLifetimeExceeded", err)
				}
				if _, err := store.Get(ctx, "u1"); !errors.Is(err, shared.ErrCredentialNotFound) {
					t.Errorf("rejected credential should not be stored, got %v", err)
				}
			})

			t.Run("Get missing", func(t *testing.T) {
				store := d.open(t)
				if _, err := store.Get(ctx, "nobody"); !errors.Is(err, shared.ErrCredentialNotFound) {
					t.Errorf("Get() = %v, want ErrCredentialNotFound", err)
				}
			})

			t.Run("Update touches access token and expiry only", func(t *testing.T) {
				store := d.open(t)
				if err := store.Save(ctx, newCredential("u1", 600, now)); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}

				later := now.Add(30 * time.Minute)
				patch := models.CredentialPatch{
					AccessToken: "access-2",
					ExpiresAt:   models.CredentialExpiry(later, 3600),
					UpdatedAt:   later,
				}
				if err := store.Update(ctx, "u1", patch); err != nil {
					t.Fatalf("failed to update credential: %v", err)
				}

				got, err := store.Get(ctx, "u1")
				if err != nil {
					t.Fatalf("failed to get credential: %v", err)
				}
				if got.AccessToken != "access-2" {
					t.Errorf("access token = %q, want access-2", got.AccessToken)
				}
				if got.RefreshToken != "refresh-u1" {
					t.Errorf("refresh token changed to %q", got.RefreshToken)
				}
				if !got.CreatedAt.Equal(now) {
					t.Errorf("created_at changed to %s", got.CreatedAt)
				}
				if !got.ExpiresAt.Equal(later.Add(time.Hour)) || !got.UpdatedAt.Equal(later) {
					t.Errorf("unexpected expiry %s / updated %s", got.ExpiresAt, got.UpdatedAt)
				}
			})

			t.Run("Update rejects ceiling violations", func(t *testing.T) {
				store := d.open(t)
				if err := store.Save(ctx, newCredential("u1", 600, now)); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}
				patch := models.CredentialPatch{AccessToken: "a", ExpiresAt: now.Add(2 * time.Hour), UpdatedAt: now}
				if err := store.Update(ctx, "u1", patch); !errors.Is(err, models.ErrLifetimeExceeded) {
					t.Errorf("Update() = %v, want ErrLifetimeExceeded", err)
				}
			})

			t.Run("Update missing", func(t *testing.T) {
				store := d.open(t)
				patch := models.CredentialPatch{AccessToken: "a", ExpiresAt: now.Add(time.Minute), UpdatedAt: now}
				if err := store.Update(ctx, "nobody", patch); !errors.Is(err, shared.ErrCredentialNotFound) {
					t.Errorf("Update() = %v, want ErrCredentialNotFound", err)
				}
			})

			t.Run("Invalidate keeps the record", func(t *testing.T) {
				store := d.open(t)
				if err := store.Save(ctx, newCredential("u1", 3600, now)); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}

				at := now.Add(time.Minute)
				if err := store.Invalidate(ctx, "u1", at); err != nil {
					t.Fatalf("failed to invalidate credential: %v", err)
				}

				got, err := store.Get(ctx, "u1")
				if err != nil {
					t.Fatalf("record should remain after invalidate: %v", err)
				}
				if got.DeletedAt == nil || !got.DeletedAt.Equal(at) {
					t.Errorf("deleted_at = %v, want %s", got.DeletedAt, at)
				}
				if got.AccessToken != "" || got.RefreshToken != "" {
					t.Errorf("tokens should be cleared, got %q %q", got.AccessToken, got.RefreshToken)
				}
				if got.State(at) != models.CredentialUnlinked {
					t.Errorf("state = %s, want unlinked", got.State(at))
				}
			})

			t.Run("Update after invalidate", func(t *testing.T) {
				store := d.open(t)
				if err := store.Save(ctx, newCredential("u1", 3600, now)); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}
				if err := store.Invalidate(ctx, "u1", now); err != nil {
					t.Fatalf("failed to invalidate credential: %v", err)
				}

				patch := models.CredentialPatch{AccessToken: "a", ExpiresAt: now.Add(time.Minute), UpdatedAt: now}
				if err := store.Update(ctx, "u1", patch); !errors.Is(err, shared.ErrCredentialNotFound) {
					t.Errorf("Update() = %v, want ErrCredentialNotFound", err)
				}
			})

			t.Run("Save after invalidate relinks", func(t *testing.T) {
				store := d.open(t)
				if err := store.Save(ctx, newCredential("u1", 3600, now)); err != nil {
					t.Fatalf("failed to save credential: %v", err)
				}
				if err := store.Invalidate(ctx, "u1", now); err != nil {
					t.Fatalf("failed to invalidate credential: %v", err)
				}

				relinked := newCredential("u1", 3600, now.Add(time.Minute))
				if err := store.Save(ctx, relinked); err != nil {
					t.Fatalf("failed to relink: %v", err)
				}

				got, err := store.Get(ctx, "u1")
				if err != nil {
					t.Fatalf("failed to get credential: %v", err)
				}
				if got.DeletedAt != nil || got.AccessToken == "" {
					t.Errorf("relinked credential should be live, got %+v", got)
				}
			})

			t.Run("Invalidate missing", func(t *testing.T) {
				store := d.open(t)
				if err := store.Invalidate(ctx, "nobody", now); !errors.Is(err, shared.ErrCredentialNotFound) {
					t.Errorf("Invalidate() = %v, want ErrCredentialNotFound", err)
				}
			})
		})
	}
}

func TestCredentialRepositoryNullTokens(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepository(db)
	now := time.Now().UTC()

	if err := repo.Save(context.Background(), newCredential("u1", 3600, now)); err != nil {
		t.Fatalf("failed to save credential: %v", err)
	}
	if err := repo.Invalidate(context.Background(), "u1", now); err != nil {
		t.Fatalf("failed to invalidate credential: %v", err)
	}

	var access, refresh sql.NullString
	err := db.QueryRow("SELECT access_token, refresh_token FROM linked_credentials WHERE owner_id = ?", "u1").Scan(&access, &refresh)
	if err != nil {
		t.Fatalf("failed to query raw row: %v", err)
	}
	if access.Valid || refresh.Valid {
		t.Errorf("tokens should be NULL after invalidate, got %v %v", access, refresh)
	}
}

func TestCredentialRepositoryClosedDB(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	repo := NewCredentialRepository(db)
	db.Close()

	if _, err := repo.Get(context.Background(), "u1"); !errors.Is(err, shared.ErrStoreUnavailable) {
		t.Errorf("Get() = %v, want ErrStoreUnavailable", err)
	}
}

func TestRedisCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Key prefix", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		store := NewRedisCredentialStore(client, "tokens:")

		if err := store.Save(ctx, newCredential("u1", 3600, time.Now())); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}
		if !mr.Exists("tokens:u1") {
			t.Errorf("expected key tokens:u1, have %v", mr.Keys())
		}
		if ttl := mr.TTL("tokens:u1"); ttl != 0 {
			t.Errorf("documents should not expire, ttl = %s", ttl)
		}
	})

	t.Run("Default prefix", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		store := NewRedisCredentialStore(client, "")

		if err := store.Save(ctx, newCredential("u1", 3600, time.Now())); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}
		if !mr.Exists(DefaultRedisPrefix + "u1") {
			t.Errorf("expected default prefixed key, have %v", mr.Keys())
		}
	})

	t.Run("Server down", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		store := NewRedisCredentialStore(client, "")
		mr.Close()

		if _, err := store.Get(ctx, "u1"); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("Get() = %v, want ErrStoreUnavailable", err)
		}
		if err := store.Save(ctx, newCredential("u1", 3600, time.Now())); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("Save() = %v, want ErrStoreUnavailable", err)
		}
		now := time.Now()
		patch := models.CredentialPatch{AccessToken: "a2", ExpiresAt: now.Add(time.Minute), UpdatedAt: now}
		if err := store.Update(ctx, "u1", patch); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("Update() = %v, want ErrStoreUnavailable", err)
		}
		if err := store.Invalidate(ctx, "u1", now); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("Invalidate() = %v, want ErrStoreUnavailable", err)
		}
	})

	t.Run("NewRedisClient", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewRedisClient(ctx, mr.Addr(), "", 0)
		if err != nil {
			t.Fatalf("NewRedisClient() error = %v", err)
		}
		client.Close()

		mr.Close()
		if _, err := NewRedisClient(ctx, mr.Addr(), "", 0); err == nil {
			t.Error("expected ping failure after server shutdown")
		}
	})
}
