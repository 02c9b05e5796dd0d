// Package testutil opens throwaway SQLite databases with the production schema
// and seeds the rows that the bookmark core only reads (users and posts).
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
)

// NewDB returns a migrated in-memory database private to the test. The pool is
// capped at one connection so concurrent callers serialize instead of hitting
// SQLITE_BUSY.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := db.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	conn, err := db.Open(sqlite.Open(dsn), gormlogger.Discard)
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return conn
}

func CreateUser(t testing.TB, conn *gorm.DB, username string) *db.User {
	t.Helper()

	user := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	require.NoError(t, conn.Create(&user).Error)
	return &user
}

func CreatePost(t testing.TB, conn *gorm.DB, owner *db.User, title string) *db.Post {
	t.Helper()

	post := db.Post{
		Title:   title,
		Image:   "../coffee",
		OwnerID: owner.ID,
	}
	require.NoError(t, conn.Omit("Owner").Create(&post).Error)
	return &post
}
