package keystore

import "time"

// StoredKey is one user-supplied vendor credential, encrypted at rest,
// with a consumption counter. Quota 0 means unlimited.
type StoredKey struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID             int64     `gorm:"not null;index:uniq_owner_alias,unique,priority:1"`
	Service             string    `gorm:"type:varchar(32);not null"`
	EncryptedCredential string    `gorm:"type:text;not null"`
	Alias               string    `gorm:"type:varchar(64);not null;index:uniq_owner_alias,unique,priority:2"`
	Quota               int       `gorm:"not null"`
	Remaining           int       `gorm:"not null"`
	Active              bool      `gorm:"not null;default:true"`
	CreatedAt           time.Time
}

func (StoredKey) TableName() string { return "stored_keys" }

// UserProfile is created lazily on first contact. Balance carries no
// transaction semantics; the column exists for schema compatibility only.
type UserProfile struct {
	OwnerID     int64   `gorm:"primaryKey"`
	DisplayName string  `gorm:"type:varchar(128)"`
	Balance     float64 `gorm:"not null;default:0"`
	ActiveKeyID *uint64
	JoinedAt    time.Time `gorm:"autoCreateTime"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// KeyInfo is the listing shape exposed to the controller: no credential,
// no encryption detail.
type KeyInfo struct {
	ID        uint64
	Alias     string
	Service   string
	Quota     int
	Remaining int
}
