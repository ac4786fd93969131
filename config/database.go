package config

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured database and stores the handle in DB.
func InitDB(settings Settings) error {
	db, err := OpenDB(settings)
	if err != nil {
		return err
	}
	DB = db
	log.Println("Database connected successfully")
	return nil
}

// OpenDB connects to MySQL or SQLite depending on DB_DRIVER.
func OpenDB(settings Settings) (*gorm.DB, error) {
	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if settings.IsProduction() && !settings.DebugSQL {
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}

	var dialector gorm.Dialector
	switch strings.ToLower(settings.DBDriver) {
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			settings.DBUsername,
			settings.DBPassword,
			settings.DBHost,
			settings.DBPort,
			settings.DBDatabase,
		)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(settings.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", settings.DBDriver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// SQLite serializes writers; a single connection avoids SQLITE_BUSY under concurrent transitions.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}
