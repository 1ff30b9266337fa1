package data

import (
	"log"

	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func MustMySQL(dsn string) *gorm.DB {
	// TranslateError surfaces unique-index violations as gorm.ErrDuplicatedKey.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates the schema for every model the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Network{},
		&types.NetworkRPC{},
		&types.Setting{},
		&types.User{},
		&types.Address{},
		&types.Post{},
		&types.Poll{},
		&types.PollVote{},
		&types.ScoreEvent{},
	)
}
