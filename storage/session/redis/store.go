package redissession

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/sms/core/session"
)

const keyPrefix = "session:revoked:"

type store struct {
	client redis.UniversalClient
}

var _ session.Store = (*store)(nil)

func NewStore(client redis.UniversalClient) session.Store {
	vala.BeginValidation().Validate(vala.IsNotNil(client, "client")).CheckAndPanic()
	return &store{client: client}
}

// Open connects to the redis server at url (redis://[user:pass@]host:port/db) and checks it is reachable.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (s *store) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "revoking session")
	}
	return nil
}

func (s *store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking session revocation")
	}
	return n > 0, nil
}
