package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/service"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/store"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/testutil"
)

type fixture struct {
	conn      *gorm.DB
	svc       *service.Bookmarks
	bookmarks *store.Bookmarks
	alice     *db.User
	bob       *db.User
	post      *db.Post
}

func newFixture(t *testing.T, wrap func(*store.Bookmarks) service.BookmarkStore) *fixture {
	conn := testutil.NewDB(t)
	posts := store.NewPosts(conn)
	bookmarks := store.NewBookmarks(conn, posts)

	var bs service.BookmarkStore = bookmarks
	if wrap != nil {
		bs = wrap(bookmarks)
	}

	alice := testutil.CreateUser(t, conn, "alice")
	bob := testutil.CreateUser(t, conn, "bob")

	return &fixture{
		conn:      conn,
		svc:       service.NewBookmarks(store.NewFolders(conn), bs, posts, store.NewTxManager(conn), zap.NewNop().Sugar()),
		bookmarks: bookmarks,
		alice:     alice,
		bob:       bob,
		post:      testutil.CreatePost(t, conn, bob, "Compost 101"),
	}
}

func TestFolderLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	t.Run("name is trimmed", func(t *testing.T) {
		folder, err := f.svc.CreateFolder(ctx, f.alice.ID, "  Recipes  ")
		require.NoError(t, err)
		assert.Equal(t, "Recipes", folder.Name)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := f.svc.CreateFolder(ctx, f.alice.ID, "Recipes")
		assert.True(t, errors.Is(err, models.ErrDuplicateName), "got %v", err)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := f.svc.CreateFolder(ctx, f.alice.ID, "   ")
		require.True(t, errors.Is(err, models.ErrValidation), "got %v", err)

		var e *models.Error
		require.True(t, errors.As(err, &e))
		assert.Contains(t, e.Fields, "name")
	})

	t.Run("long name", func(t *testing.T) {
		_, err := f.svc.CreateFolder(ctx, f.alice.ID, strings.Repeat("a", 256))
		assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)

		_, err = f.svc.CreateFolder(ctx, f.alice.ID, strings.Repeat("ä", 255))
		assert.NoError(t, err)
	})

	t.Run("rename", func(t *testing.T) {
		folder, err := f.svc.CreateFolder(ctx, f.alice.ID, "Drafts")
		require.NoError(t, err)

		renamed, err := f.svc.RenameFolder(ctx, f.alice.ID, folder.ID, "Later")
		require.NoError(t, err)
		assert.Equal(t, "Later", renamed.Name)

		_, err = f.svc.RenameFolder(ctx, f.alice.ID, folder.ID, "Recipes")
		assert.True(t, errors.Is(err, models.ErrDuplicateName), "got %v", err)

		_, err = f.svc.RenameFolder(ctx, f.alice.ID, folder.ID, "")
		assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)
	})
}

func TestOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	folder, err := f.svc.CreateFolder(ctx, f.alice.ID, "Private")
	require.NoError(t, err)
	bookmark, err := f.svc.CreateBookmark(ctx, f.alice.ID, f.post.ID, folder.ID)
	require.NoError(t, err)

	_, err = f.svc.GetFolder(ctx, f.bob.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden), "got %v", err)

	_, err = f.svc.RenameFolder(ctx, f.bob.ID, folder.ID, "Mine now")
	assert.True(t, errors.Is(err, models.ErrForbidden), "got %v", err)

	err = f.svc.DeleteFolder(ctx, f.bob.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden), "got %v", err)

	_, err = f.svc.ListFolderBookmarks(ctx, f.bob.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden), "got %v", err)

	_, err = f.svc.GetBookmark(ctx, f.bob.ID, bookmark.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden), "got %v", err)

	err = f.svc.DeleteBookmark(ctx, f.bob.ID, bookmark.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden), "got %v", err)

	_, err = f.svc.CreateBookmark(ctx, f.bob.ID, f.post.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrInvalidReference), "got %v", err)

	folders, err := f.svc.ListFolders(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)

	bookmarks, err := f.svc.ListBookmarks(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)

	// nothing changed for the owner
	got, err := f.svc.GetFolder(ctx, f.alice.ID, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Name)
	assert.Equal(t, int64(1), got.BookmarksCount)

	_, err = f.svc.GetFolder(ctx, f.alice.ID, 999999)
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)
	_, err = f.svc.GetBookmark(ctx, f.alice.ID, 999999)
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)
}

func TestCreateBookmark(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	folder, err := f.svc.CreateFolder(ctx, f.alice.ID, "Recipes")
	require.NoError(t, err)

	t.Run("required fields", func(t *testing.T) {
		_, err := f.svc.CreateBookmark(ctx, f.alice.ID, 0, folder.ID)
		assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)

		_, err = f.svc.CreateBookmark(ctx, f.alice.ID, f.post.ID, 0)
		assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)
	})

	t.Run("created with post summary", func(t *testing.T) {
		b, err := f.svc.CreateBookmark(ctx, f.alice.ID, f.post.ID, folder.ID)
		require.NoError(t, err)

		require.NotNil(t, b.Post)
		assert.Equal(t, "Compost 101", b.Post.Title)
		assert.Equal(t, "bob", b.Post.Author)
		assert.Equal(t, "../coffee", b.Post.Image)
		assert.Equal(t, "Recipes", b.FolderName)
	})

	t.Run("second time is a duplicate", func(t *testing.T) {
		_, err := f.svc.CreateBookmark(ctx, f.alice.ID, f.post.ID, folder.ID)
		assert.True(t, errors.Is(err, models.ErrDuplicateBookmark), "got %v", err)
	})

	t.Run("same post in another folder", func(t *testing.T) {
		other, err := f.svc.CreateFolder(ctx, f.alice.ID, "Other")
		require.NoError(t, err)

		_, err = f.svc.CreateBookmark(ctx, f.alice.ID, f.post.ID, other.ID)
		assert.NoError(t, err)
	})

	t.Run("counts stay live", func(t *testing.T) {
		got, err := f.svc.GetFolder(ctx, f.alice.ID, folder.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.BookmarksCount)

		list, err := f.svc.ListFolderBookmarks(ctx, f.alice.ID, folder.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NoError(t, f.svc.DeleteBookmark(ctx, f.alice.ID, list[0].ID))

		got, err = f.svc.GetFolder(ctx, f.alice.ID, folder.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.BookmarksCount)
	})
}

func TestDeleteFolderCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	folder, err := f.svc.CreateFolder(ctx, f.alice.ID, "X")
	require.NoError(t, err)
	keep, err := f.svc.CreateFolder(ctx, f.alice.ID, "Keep")
	require.NoError(t, err)

	for _, title := range []string{"one", "two", "three"} {
		post := testutil.CreatePost(t, f.conn, f.bob, title)
		_, err := f.svc.CreateBookmark(ctx, f.alice.ID, post.ID, folder.ID)
		require.NoError(t, err)
	}
	_, err = f.svc.CreateBookmark(ctx, f.alice.ID, f.post.ID, keep.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteFolder(ctx, f.alice.ID, folder.ID))

	_, err = f.svc.GetFolder(ctx, f.alice.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)

	_, err = f.svc.ListFolderBookmarks(ctx, f.alice.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)

	n, err := f.bookmarks.CountInFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	remaining, err := f.svc.ListBookmarks(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].FolderID)

	err = f.svc.DeleteFolder(ctx, f.alice.ID, folder.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)
}

// failingBookmarks removes the folder's bookmarks and then reports a failure,
// as a connection dropped after the DELETE would.
type failingBookmarks struct {
	*store.Bookmarks
}

func (b failingBookmarks) DeleteInFolder(ctx context.Context, owner, folderID uint64) (int64, error) {
	if _, err := b.Bookmarks.DeleteInFolder(ctx, owner, folderID); err != nil {
		return 0, err
	}
	return 0, errors.New("connection reset")
}

// shortBookmarks removes one bookmark fewer than the folder holds.
type shortBookmarks struct {
	*store.Bookmarks
}

func (b shortBookmarks) DeleteInFolder(ctx context.Context, owner, folderID uint64) (int64, error) {
	n, err := b.Bookmarks.DeleteInFolder(ctx, owner, folderID)
	return n - 1, err
}

func TestDeleteFolderCascadeFailure(t *testing.T) {
	cases := map[string]func(*store.Bookmarks) service.BookmarkStore{
		"delete error": func(b *store.Bookmarks) service.BookmarkStore { return failingBookmarks{b} },
		"partial":      func(b *store.Bookmarks) service.BookmarkStore { return shortBookmarks{b} },
	}

	for name, wrap := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, wrap)

			folder, err := f.svc.CreateFolder(ctx, f.alice.ID, "X")
			require.NoError(t, err)
			for _, title := range []string{"one", "two", "three"} {
				post := testutil.CreatePost(t, f.conn, f.bob, title)
				_, err := f.svc.CreateBookmark(ctx, f.alice.ID, post.ID, folder.ID)
				require.NoError(t, err)
			}

			err = f.svc.DeleteFolder(ctx, f.alice.ID, folder.ID)
			require.True(t, errors.Is(err, models.ErrCascadeFailure), "got %v", err)

			got, err := f.svc.GetFolder(ctx, f.alice.ID, folder.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), got.BookmarksCount)

			list, err := f.svc.ListFolderBookmarks(ctx, f.alice.ID, folder.ID)
			require.NoError(t, err)
			assert.Len(t, list, 3)
		})
	}
}
