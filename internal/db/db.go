package db

import (
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yixuan-h/pagemate/internal/chat"
)

// Connect opens the local sqlite database and migrates the job table.
func Connect(path string) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("open sqlite %s: %v", path, err)
	}
	if err := gdb.AutoMigrate(&chat.Job{}); err != nil {
		log.Fatalf("automigrate: %v", err)
	}
	return gdb
}
