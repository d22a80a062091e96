package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN     string
	Migrate bool
}

// InitDB opens the MySQL connection and, when asked, migrates the tables
// used by the database store and directory.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(config.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if config.Migrate {
		if err := db.AutoMigrate(&User{}, &AppointmentRecord{}); err != nil {
			return nil, err
		}
	}

	return db, nil
}
