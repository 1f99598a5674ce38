// Package db sets up the relational store
package db

import (
	"fmt"

	"blogapi/internal/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens the database picked by the db.driver config key (sqlite for
// development, postgres for real deployments) and migrates the models
func New() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
		dsn = viper.GetString("db.dsn")
	)

	switch viper.GetString("db.driver") {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn))
	default:
		db, err = gorm.Open(sqlite.Open(dsn))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database, %w", err)
	}

	err = db.AutoMigrate(model.User{}, model.Post{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
