package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const levelKeyPrefix = "user/"

var syncWrite = &opt.WriteOptions{Sync: true}

// LevelDBRepository stores one JSON-encoded models.User per key. Writes run
// inside a leveldb transaction, which excludes concurrent writers.
type LevelDBRepository struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database directory at path.
func OpenLevelDB(path string) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldb open %s: %w", path, err)
	}
	return db, nil
}

func NewLevelDBRepository(db *leveldb.DB) *LevelDBRepository {
	return &LevelDBRepository{db: db}
}

func levelKey(login string) []byte {
	return []byte(levelKeyPrefix + login)
}

func (r *LevelDBRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	tr, err := r.db.OpenTransaction()
	if err != nil {
		return nil, fmt.Errorf("leveldb error: %w", err)
	}
	defer tr.Discard()

	key := levelKey(user.UserName)

	exists, err := tr.Has(key, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldb error: %w", err)
	}
	if exists {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	b, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	if err := tr.Put(key, b, syncWrite); err != nil {
		return nil, fmt.Errorf("leveldb error: %w", err)
	}
	if err := tr.Commit(); err != nil {
		return nil, fmt.Errorf("leveldb error: %w", err)
	}

	return user, nil
}

func (r *LevelDBRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	b, err := r.db.Get(levelKey(login), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("leveldb error: %w", err)
	}

	u := &models.User{}
	if err := json.Unmarshal(b, u); err != nil {
		return nil, fmt.Errorf("leveldb record %q: %w", login, err)
	}
	return u, nil
}

func (r *LevelDBRepository) Exists(_ context.Context, login string) (bool, error) {
	ok, err := r.db.Has(levelKey(login), nil)
	if err != nil {
		return false, fmt.Errorf("leveldb error: %w", err)
	}
	return ok, nil
}

func (r *LevelDBRepository) SwapCredential(_ context.Context, login, expected, replacement string) error {
	tr, err := r.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("leveldb error: %w", err)
	}
	defer tr.Discard()

	key := levelKey(login)

	b, err := tr.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("leveldb error: %w", err)
	}

	var u models.User
	if err := json.Unmarshal(b, &u); err != nil {
		return fmt.Errorf("leveldb record %q: %w", login, err)
	}
	if u.Credential != expected {
		return common.ErrVersionConflict
	}

	u.Credential = replacement
	u.UpdatedAt = time.Now().UTC()

	if b, err = json.Marshal(&u); err != nil {
		return err
	}
	if err := tr.Put(key, b, syncWrite); err != nil {
		return fmt.Errorf("leveldb error: %w", err)
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("leveldb error: %w", err)
	}
	return nil
}
