package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in a mutex-guarded map. Nothing survives a
// restart.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.UserName] = *user

	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) Exists(_ context.Context, login string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[login]
	return ok, nil
}

func (r *MemoryRepository) SwapCredential(_ context.Context, login, expected, replacement string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[login]
	if !ok {
		return common.ErrorNotFound
	}
	if u.Credential != expected {
		return common.ErrVersionConflict
	}

	u.Credential = replacement
	u.UpdatedAt = r.now().UTC()
	r.users[login] = u
	return nil
}
