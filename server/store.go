package server

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/log"
)

const (
	seedUsername = "admin"
	seedPassword = "admin123"
)

// Store owns the server database
type Store struct {
	db *gorm.DB
}

// OpenStore opens the configured database, migrates the schema and seeds the
// default admin account when the users table is empty.
func OpenStore(cfg config.DB) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, errors.BadRequest("unsupported db driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, 500, "open database")
	}

	if err := db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Artist{},
		&Album{},
		&AlbumCover{},
		&Regional{},
	); err != nil {
		return nil, errors.Wrap(err, 500, "migrate schema")
	}

	s := &Store{db: db}
	if err := s.seed(); err != nil {
		return nil, err
	}

	return s, nil
}

// Close releases the underlying database connection
func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) seed() error {
	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, 500, "count users")
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, 500, "hash seed password")
	}

	user := User{Username: seedUsername, Password: string(hash), CreatedAt: time.Now()}
	if err := s.db.Create(&user).Error; err != nil {
		return errors.Wrap(err, 500, "seed admin user")
	}

	log.Info().Str("username", seedUsername).Msg("seeded default admin account")
	return nil
}
