package db

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/logger"
)

var Module = fx.Options(
	fx.Provide(NewGormClient),
	fx.Invoke(registerClose),
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Username string `gorm:"unique;not null"`
		Email    string `gorm:"unique;not null"`
		Password string `gorm:"not null"`
	}

	Post struct {
		GormForkedModel
		Title   string `gorm:"not null"`
		Content string
		Image   string
		OwnerID uint64 `gorm:"not null;index"`
		Owner   User   `gorm:"constraint:OnDelete:CASCADE"`
	}

	// Folder names are unique per owner.
	Folder struct {
		GormForkedModel
		Name    string `gorm:"not null;size:255;uniqueIndex:uidx_folder_owner_name"`
		OwnerID uint64 `gorm:"not null;uniqueIndex:uidx_folder_owner_name"`
		Owner   User   `gorm:"constraint:OnDelete:CASCADE"`
	}

	// Bookmark has no UpdatedAt, it is never modified after insert. Deleting a
	// folder that still holds bookmarks is rejected by the folder constraint;
	// the service removes bookmarks first.
	Bookmark struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		OwnerID   uint64 `gorm:"not null;uniqueIndex:uidx_bookmark_owner_post_folder"`
		Owner     User   `gorm:"constraint:OnDelete:CASCADE"`
		PostID    uint64 `gorm:"not null;uniqueIndex:uidx_bookmark_owner_post_folder"`
		Post      Post   `gorm:"constraint:OnDelete:CASCADE"`
		FolderID  uint64 `gorm:"not null;index;uniqueIndex:uidx_bookmark_owner_post_folder"`
		Folder    Folder `gorm:"constraint:OnDelete:RESTRICT"`
	}
)

func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	level := gormlogger.Warn
	if cfg.LogDevelopment {
		level = gormlogger.Info
	}

	return Open(dialector, logger.NewGormLogger(l, level))
}

// SQLiteDSN adds foreign key enforcement to a SQLite path; SQLite leaves it
// off for every new connection otherwise.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Open connects through the given dialector and migrates the schema.
func Open(dialector gorm.Dialector, gl gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gl,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Post{}); err != nil {
		return errors.Wrap(err, "migrate post")
	}
	if err := db.AutoMigrate(&Folder{}); err != nil {
		return errors.Wrap(err, "migrate folder")
	}
	if err := db.AutoMigrate(&Bookmark{}); err != nil {
		return errors.Wrap(err, "migrate bookmark")
	}
	return nil
}

func registerClose(lc fx.Lifecycle, db *gorm.DB, l *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			l.Info("Closing database connection.")
			return sqlDB.Close()
		},
	})
}
