package keystore

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateKey(ctx context.Context, k *StoredKey) error {
	return r.db.WithContext(ctx).Create(k).Error
}

// ListKeys returns the owner's active keys, newest first.
func (r *Repo) ListKeys(ctx context.Context, ownerID int64) ([]StoredKey, error) {
	var keys []StoredKey
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Order("created_at DESC, id DESC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *Repo) GetKey(ctx context.Context, id uint64, ownerID int64) (*StoredKey, error) {
	var k StoredKey
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND active = ?", id, ownerID, true).
		First(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *Repo) GetKeyByID(ctx context.Context, id uint64) (*StoredKey, error) {
	var k StoredKey
	if err := r.db.WithContext(ctx).First(&k, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

// Decrement reduces remaining by count only when remaining >= count, in a
// single conditional UPDATE. Two concurrent rounds draining the same key can
// race here, so read-then-write is not acceptable.
func (r *Repo) Decrement(ctx context.Context, id uint64, count int) (bool, error) {
	return decrementTx(r.db.WithContext(ctx), id, count)
}

func decrementTx(tx *gorm.DB, id uint64, count int) (bool, error) {
	res := tx.Model(&StoredKey{}).
		Where("id = ? AND active = ? AND remaining >= ?", id, true, count).
		UpdateColumn("remaining", gorm.Expr("remaining - ?", count))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// errExhaustedRollback aborts the pair transaction when one key is drained.
var errExhaustedRollback = errors.New("keystore: quota exhausted")

// DecrementPair charges both keys by one inside a single transaction: either
// both decrements commit or neither does. It returns the ID of the first key
// whose quota was exhausted, or 0 when both succeeded. Keys with quota 0 are
// unlimited and are not charged.
func (r *Repo) DecrementPair(ctx context.Context, id1, id2 uint64) (exhausted uint64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range []uint64{id1, id2} {
			var k StoredKey
			if err := tx.First(&k, "id = ?", id).Error; err != nil {
				return err
			}
			if k.Quota == 0 {
				continue
			}
			ok, err := decrementTx(tx, id, 1)
			if err != nil {
				return err
			}
			if !ok {
				exhausted = id
				return errExhaustedRollback
			}
		}
		return nil
	})
	if exhausted != 0 {
		return exhausted, nil
	}
	return 0, err
}

func (r *Repo) DeleteKey(ctx context.Context, id uint64, ownerID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&StoredKey{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) GetProfile(ctx context.Context, ownerID int64) (*UserProfile, error) {
	var p UserProfile
	if err := r.db.WithContext(ctx).First(&p, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProfile creates the profile on first contact, or returns the
// existing one.
func (r *Repo) EnsureProfile(ctx context.Context, ownerID int64, displayName string) (*UserProfile, error) {
	p := UserProfile{OwnerID: ownerID, DisplayName: displayName}
	if err := r.db.WithContext(ctx).
		Where(UserProfile{OwnerID: ownerID}).
		FirstOrCreate(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) SetActiveKey(ctx context.Context, ownerID int64, keyID *uint64) error {
	return r.db.WithContext(ctx).Model(&UserProfile{}).
		Where("owner_id = ?", ownerID).
		Update("active_key_id", keyID).Error
}
