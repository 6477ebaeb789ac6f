package inmemsession

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/sms/core/session"
)

var nowFunc = time.Now // mockable

type store struct {
	revoked map[string]time.Time // {tokenID: expiry}
	mutex   sync.RWMutex
}

var _ session.Store = (*store)(nil)

func NewStore() session.Store {
	return &store{revoked: make(map[string]time.Time)}
}

func (s *store) Revoke(_ context.Context, tokenID string, until time.Time) error {
	now := nowFunc()
	if !until.After(now) {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// prune expired entries
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = until
	return nil
}

func (s *store) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	exp, ok := s.revoked[tokenID]
	return ok && exp.After(nowFunc()), nil
}
