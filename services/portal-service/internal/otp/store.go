package otp

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Store keeps bcrypt hashes of pending login codes in Redis, one per
// (organization, phone) pair. Codes expire after the TTL; verification
// is capped at maxAttempts to stop brute forcing the six digits.
type Store struct {
	rdb         *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewStore(rdb *redis.Client, ttl time.Duration, maxAttempts int) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Store{rdb: rdb, ttl: ttl, maxAttempts: maxAttempts}
}

func codeKey(orgID, phone string) string {
	return "otp:" + orgID + ":" + phone
}

func attemptsKey(orgID, phone string) string {
	return "otp_attempts:" + orgID + ":" + phone
}

// Issue stores a fresh code hash, replacing any pending one and
// resetting the attempt counter.
func (s *Store) Issue(ctx context.Context, orgID, phone, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, codeKey(orgID, phone), string(hash), s.ttl).Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, attemptsKey(orgID, phone)).Err()
}

// Verify checks a submitted code. A correct code consumes the entry;
// wrong codes burn an attempt, and exhausting the attempts invalidates
// the pending code entirely.
func (s *Store) Verify(ctx context.Context, orgID, phone, code string) (bool, error) {
	attempts, err := s.rdb.Incr(ctx, attemptsKey(orgID, phone)).Result()
	if err != nil {
		return false, err
	}
	if attempts == 1 {
		_ = s.rdb.Expire(ctx, attemptsKey(orgID, phone), s.ttl).Err()
	}
	if attempts > int64(s.maxAttempts) {
		_ = s.rdb.Del(ctx, codeKey(orgID, phone), attemptsKey(orgID, phone)).Err()
		return false, nil
	}

	hash, err := s.rdb.Get(ctx, codeKey(orgID, phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return false, nil
	}
	_ = s.rdb.Del(ctx, codeKey(orgID, phone), attemptsKey(orgID, phone)).Err()
	return true, nil
}
