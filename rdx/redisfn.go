package rdx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "session:revoked:"

// TokenRevoker keeps a deny-list of logged out session ids. Entries expire
// together with the token they refer to.
type TokenRevoker struct {
	client redis.Cmdable
}

func NewTokenRevoker(client redis.Cmdable) *TokenRevoker {
	return &TokenRevoker{client: client}
}

func (t *TokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return t.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

func (t *TokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := t.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
