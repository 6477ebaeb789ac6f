// Package inmemdb keeps users in memory. It backs tests and throwaway dev servers.
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/sms/core/user"
)

type userRepository struct {
	table map[string]*user.User
	mutex sync.RWMutex
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository() user.Repository {
	return &userRepository{table: make(map[string]*user.User)}
}

func (repo *userRepository) EmailExists(_ context.Context, email string, excludedIDs ...string) (bool, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	return repo.emailTaken(email, excludedIDs...), nil
}

// emailTaken must be called with the mutex held.
func (repo *userRepository) emailTaken(email string, excludedIDs ...string) bool {
	excluded := append([]string(nil), excludedIDs...)
	sort.Strings(excluded)
	for _, usr := range repo.table {
		if usr.Email == email && !isExcluded(usr.ID, excluded) {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	if repo.emailTaken(usr.Email) {
		return user.User{}, user.ErrEmailExists
	}
	usr.ID = uuid.New().String()
	repo.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.table {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	origUsr, ok := repo.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, user.ErrEmailExists
	}
	usr.CreatedAt = origUsr.CreatedAt
	repo.table[usr.ID] = &usr
	return usr, nil
}

func isExcluded(id string, sortedIDs []string) bool {
	idx := sort.SearchStrings(sortedIDs, id)
	return idx < len(sortedIDs) && sortedIDs[idx] == id
}
