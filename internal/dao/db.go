package dao

import (
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var db *gorm.DB

// InitDB opens the relational store and migrates the tables the core owns
// (jobs/tasks/build/approval/runner — spec §6). Identity and inventory
// tables are never migrated here; they belong to the external collaborators
// that own them.
func InitDB(dsn string) error {
	database, err := gorm.Open(mysql.Open(dsn))
	if err != nil {
		return err
	}
	db = database
	return db.AutoMigrate(
		&model.Job{},
		&model.Task{},
		&model.LastAppliedAttempt{},
		&model.ApprovalRequest{},
		&model.ApprovalRecord{},
		&model.ApprovalGroup{},
		&model.BuildJob{},
		&model.BuildStep{},
		&model.BuildArtifact{},
		&model.Runner{},
	)
}

// SetDB lets tests inject a pre-opened handle (e.g. sqlite in-memory) without
// routing through InitDB's MySQL driver.
func SetDB(d *gorm.DB) {
	db = d
}
