// Package cache holds the Redis-backed one-time-code store used by the
// password reset flow
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reset_code:"

// VerificationRecord is what gets stored per email while a reset flow is in
// progress. Absence of a record is indistinguishable from expiry, that's the
// store's contract.
type VerificationRecord struct {
	Code     string `json:"code"`
	Verified bool   `json:"verified"`
}

type CodeStore struct {
	rdb *redis.Client
}

func NewCodeStore(rdb *redis.Client) *CodeStore {
	return &CodeStore{rdb: rdb}
}

// Set overwrites the record for email and restarts its TTL countdown
func (s *CodeStore) Set(ctx context.Context, email string, rec VerificationRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, keyPrefix+email, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification record, %w", err)
	}

	return nil
}

// Get returns nil without an error when no live record exists for email,
// whether it was never set or already expired
func (s *CodeStore) Get(ctx context.Context, email string) (*VerificationRecord, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+email).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read verification record, %w", err)
	}

	var rec VerificationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt verification record, %w", err)
	}

	return &rec, nil
}

// Delete is idempotent, removing an absent key is not an error
func (s *CodeStore) Delete(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, keyPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to delete verification record, %w", err)
	}

	return nil
}
