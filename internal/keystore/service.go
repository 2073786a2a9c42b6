package keystore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// QuotaExhaustedError reports which key ran out during a pair charge, so the
// caller can name the participant instead of showing a generic failure.
type QuotaExhaustedError struct {
	KeyID uint64
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("quota exhausted for key %d", e.KeyID)
}

// Service is the Key Store boundary. Storage errors are logged here and
// flattened to boolean/absent results; callers only see ok / not-ok plus the
// typed quota-exhausted error from ChargePair.
type Service struct {
	repo   *Repo
	cipher *Cipher
}

func NewService(repo *Repo, cipher *Cipher) *Service {
	return &Service{repo: repo, cipher: cipher}
}

// AddKey encrypts the raw credential and stores it. Returns false on a
// duplicate (owner, alias) or any storage failure.
func (s *Service) AddKey(ctx context.Context, ownerID int64, service, rawCredential, alias string, quota int) bool {
	if quota < 0 {
		return false
	}
	enc, err := s.cipher.EncryptString(rawCredential)
	if err != nil {
		log.Printf("keystore: encrypt failed owner=%d: %v", ownerID, err)
		return false
	}
	k := &StoredKey{
		OwnerID:             ownerID,
		Service:             service,
		EncryptedCredential: enc,
		Alias:               alias,
		Quota:               quota,
		Remaining:           quota,
		Active:              true,
	}
	if err := s.repo.CreateKey(ctx, k); err != nil {
		log.Printf("keystore: add key failed owner=%d alias=%q: %v", ownerID, alias, err)
		return false
	}
	return true
}

func (s *Service) ListKeys(ctx context.Context, ownerID int64) []KeyInfo {
	keys, err := s.repo.ListKeys(ctx, ownerID)
	if err != nil {
		log.Printf("keystore: list keys failed owner=%d: %v", ownerID, err)
		return nil
	}
	out := make([]KeyInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyInfo{
			ID:        k.ID,
			Alias:     k.Alias,
			Service:   k.Service,
			Quota:     k.Quota,
			Remaining: k.Remaining,
		})
	}
	return out
}

// GetDecrypted returns the plaintext credential and service tag for a key the
// owner holds. The ownership check happens in the query itself.
func (s *Service) GetDecrypted(ctx context.Context, id uint64, ownerID int64) (credential, service string, ok bool) {
	k, err := s.repo.GetKey(ctx, id, ownerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("keystore: get key failed id=%d owner=%d: %v", id, ownerID, err)
		}
		return "", "", false
	}
	plain, err := s.cipher.DecryptString(k.EncryptedCredential)
	if err != nil {
		log.Printf("keystore: decrypt failed id=%d: %v", id, err)
		return "", "", false
	}
	return plain, k.Service, true
}

func (s *Service) GetRemaining(ctx context.Context, id uint64) (int, bool) {
	k, err := s.repo.GetKeyByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("keystore: get remaining failed id=%d: %v", id, err)
		}
		return 0, false
	}
	return k.Remaining, true
}

// Decrement charges a single key. Keys with quota 0 are unlimited and always
// succeed without touching the counter.
func (s *Service) Decrement(ctx context.Context, id uint64, count int) bool {
	k, err := s.repo.GetKeyByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("keystore: decrement lookup failed id=%d: %v", id, err)
		}
		return false
	}
	if k.Quota == 0 {
		return true
	}
	ok, err := s.repo.Decrement(ctx, id, count)
	if err != nil {
		log.Printf("keystore: decrement failed id=%d: %v", id, err)
		return false
	}
	return ok
}

// ChargePair charges both participants' keys by one call each, atomically.
// On exhaustion it returns *QuotaExhaustedError naming the drained key and
// leaves both counters untouched.
func (s *Service) ChargePair(ctx context.Context, id1, id2 uint64) error {
	exhausted, err := s.repo.DecrementPair(ctx, id1, id2)
	if exhausted != 0 {
		return &QuotaExhaustedError{KeyID: exhausted}
	}
	if err != nil {
		log.Printf("keystore: pair charge failed ids=%d,%d: %v", id1, id2, err)
		return err
	}
	return nil
}

func (s *Service) DeleteKey(ctx context.Context, ownerID int64, id uint64) bool {
	ok, err := s.repo.DeleteKey(ctx, id, ownerID)
	if err != nil {
		log.Printf("keystore: delete key failed id=%d owner=%d: %v", id, ownerID, err)
		return false
	}
	return ok
}

func (s *Service) EnsureProfile(ctx context.Context, ownerID int64, displayName string) *UserProfile {
	p, err := s.repo.EnsureProfile(ctx, ownerID, displayName)
	if err != nil {
		log.Printf("keystore: ensure profile failed owner=%d: %v", ownerID, err)
		return nil
	}
	return p
}
