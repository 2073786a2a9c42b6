package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/arenalabs/debatebot/internal/keystore"
)

// Connect opens a gorm connection, picking the driver from the DSN shape.
// An empty DSN falls back to the embedded sqlite file.
func Connect(dsn, sqlitePath string) *gorm.DB {
	var dialector gorm.Dialector
	switch {
	case dsn == "":
		dialector = sqlite.Open(sqlitePath)
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.HasPrefix(dsn, "host="):
		dialector = postgres.Open(dsn)
	case strings.Contains(dsn, "@tcp("):
		dialector = mysql.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(&keystore.StoredKey{}, &keystore.UserProfile{}); err != nil {
		log.Fatalf("db automigrate: %v", err)
	}
	return gdb
}
