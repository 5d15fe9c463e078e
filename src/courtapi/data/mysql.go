package data

import (
	"log"

	"github.com/overruled-app/overruled/src/courtapi/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates the courtroom tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Case{},
		&types.Response{},
		&types.Objection{},
		&types.Setting{},
	)
}
