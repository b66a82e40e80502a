package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

const DefaultRedisPrefix = "spotifyTokens:"

// RedisCredentialStore keeps each credential as a JSON document under prefix+ownerID.
//
// Documents carry no TTL; expiry is enforced by readers.
type RedisCredentialStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, unavailable("ping redis", err)
	}
	return client, nil
}

// NewRedisCredentialStore creates a store using prefix, or [DefaultRedisPrefix] when empty.
func NewRedisCredentialStore(client *redis.Client, prefix string) *RedisCredentialStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCredentialStore{client: client, prefix: prefix}
}

func (s *RedisCredentialStore) key(ownerID string) string {
	return s.prefix + ownerID
}

func (s *RedisCredentialStore) Save(ctx context.Context, cred *models.LinkedCredential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := s.client.Set(ctx, s.key(cred.OwnerID), data, 0).Err(); err != nil {
		return unavailable("save credential", err)
	}
	return nil
}

func (s *RedisCredentialStore) Get(ctx context.Context, ownerID string) (*models.LinkedCredential, error) {
	return s.get(ctx, s.client, ownerID)
}

func (s *RedisCredentialStore) get(ctx context.Context, c redis.Cmdable, ownerID string) (*models.LinkedCredential, error) {
	val, err := c.Get(ctx, s.key(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(ownerID)
	}
	if err != nil {
		return nil, unavailable("get credential", err)
	}

	var cred models.LinkedCredential
	if err := json.Unmarshal(val, &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// Update applies patch to a live document inside a WATCH transaction.
func (s *RedisCredentialStore) Update(ctx context.Context, ownerID string, patch models.CredentialPatch) error {
	if err := validatePatch(patch); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return s.modify(ctx, ownerID, func(cred *models.LinkedCredential) error {
		if cred.DeletedAt != nil {
			return notFound(ownerID)
		}
		cred.AccessToken = patch.AccessToken
		cred.ExpiresAt = patch.ExpiresAt
		cred.UpdatedAt = patch.UpdatedAt
		return nil
	})
}

// Invalidate clears both tokens and stamps DeletedAt, keeping the document.
func (s *RedisCredentialStore) Invalidate(ctx context.Context, ownerID string, at time.Time) error {
	return s.modify(ctx, ownerID, func(cred *models.LinkedCredential) error {
		cred.AccessToken = ""
		cred.RefreshToken = ""
		cred.UpdatedAt = at
		cred.DeletedAt = &at
		return nil
	})
}

func (s *RedisCredentialStore) modify(ctx context.Context, ownerID string, fn func(*models.LinkedCredential) error) error {
	key := s.key(ownerID)

	txf := func(tx *redis.Tx) error {
		cred, err := s.get(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if err := fn(cred); err != nil {
			return err
		}

		data, err := json.Marshal(cred)
		if err != nil {
			return fmt.Errorf("failed to marshal credential: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	switch {
	case err == nil, errors.Is(err, shared.ErrCredentialNotFound), errors.Is(err, shared.ErrStoreUnavailable):
		return err
	default:
		return unavailable("modify credential", err)
	}
}
