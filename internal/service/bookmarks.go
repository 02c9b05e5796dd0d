package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

const maxFolderNameLen = 255

type (
	FolderStore interface {
		Create(ctx context.Context, owner uint64, name string) (*models.Folder, error)
		Rename(ctx context.Context, folder *models.Folder, name string) (*models.Folder, error)
		Delete(ctx context.Context, folder *models.Folder) error
		ListForOwner(ctx context.Context, owner uint64) ([]models.Folder, error)
		Get(ctx context.Context, id, owner uint64) (*models.Folder, error)
		OwnerOf(ctx context.Context, id uint64) (uint64, error)
	}

	BookmarkStore interface {
		Create(ctx context.Context, owner, postID, folderID uint64) (*models.Bookmark, error)
		ListForOwner(ctx context.Context, owner uint64) ([]models.Bookmark, error)
		ListForFolder(ctx context.Context, owner, folderID uint64) ([]models.Bookmark, error)
		Get(ctx context.Context, id, owner uint64) (*models.Bookmark, error)
		OwnerOf(ctx context.Context, id uint64) (uint64, error)
		Delete(ctx context.Context, id, owner uint64) error
		CountInFolder(ctx context.Context, folderID uint64) (int64, error)
		DeleteInFolder(ctx context.Context, owner, folderID uint64) (int64, error)
	}

	PostRepository interface {
		Exists(ctx context.Context, id uint64) (bool, error)
		Summaries(ctx context.Context, ids []uint64) (map[uint64]models.PostSummary, error)
	}

	TxManager interface {
		ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

// Bookmarks serves folders and bookmarks to their owner. Every method takes
// the authenticated caller and never touches rows that belong to anyone else.
type Bookmarks struct {
	folders   FolderStore
	bookmarks BookmarkStore
	posts     PostRepository
	tx        TxManager
	logger    *zap.SugaredLogger
}

func NewBookmarks(
	folders FolderStore,
	bookmarks BookmarkStore,
	posts PostRepository,
	tx TxManager,
	l *zap.SugaredLogger,
) *Bookmarks {
	return &Bookmarks{
		folders:   folders,
		bookmarks: bookmarks,
		posts:     posts,
		tx:        tx,
		logger:    l,
	}
}

func (s *Bookmarks) ListFolders(ctx context.Context, owner uint64) ([]models.Folder, error) {
	return s.folders.ListForOwner(ctx, owner)
}

func (s *Bookmarks) CreateFolder(ctx context.Context, owner uint64, name string) (*models.Folder, error) {
	name, err := cleanFolderName(name)
	if err != nil {
		return nil, err
	}

	folder, err := s.folders.Create(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("folder created", "folder_id", folder.ID, "owner_id", owner)
	return folder, nil
}

func (s *Bookmarks) GetFolder(ctx context.Context, owner, id uint64) (*models.Folder, error) {
	return s.ownedFolder(ctx, owner, id)
}

func (s *Bookmarks) RenameFolder(ctx context.Context, owner, id uint64, name string) (*models.Folder, error) {
	name, err := cleanFolderName(name)
	if err != nil {
		return nil, err
	}

	folder, err := s.ownedFolder(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	return s.folders.Rename(ctx, folder, name)
}

// DeleteFolder removes the folder's bookmarks and then the folder in one
// transaction. If not every bookmark could be removed nothing is deleted and
// ErrCascadeFailure is returned.
func (s *Bookmarks) DeleteFolder(ctx context.Context, owner, id uint64) error {
	var removed int64

	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		folder, err := s.ownedFolder(ctx, owner, id)
		if err != nil {
			return err
		}

		expected, err := s.bookmarks.CountInFolder(ctx, folder.ID)
		if err != nil {
			return errors.Wrap(err, "count folder bookmarks")
		}

		removed, err = s.bookmarks.DeleteInFolder(ctx, owner, folder.ID)
		if err != nil {
			return models.ErrCascadeFailure.WithCause(err)
		}
		if removed != expected {
			return models.ErrCascadeFailure.WithCause(
				errors.Errorf("removed %d of %d bookmarks", removed, expected))
		}

		if err := s.folders.Delete(ctx, folder); err != nil {
			return models.ErrCascadeFailure.WithCause(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrCascadeFailure) {
			s.logger.Warnw("folder cascade rolled back", "folder_id", id, "owner_id", owner, "error", err)
		}
		return err
	}

	s.logger.Infow("folder deleted", "folder_id", id, "owner_id", owner, "bookmarks", removed)
	return nil
}

func (s *Bookmarks) ListBookmarks(ctx context.Context, owner uint64) ([]models.Bookmark, error) {
	bookmarks, err := s.bookmarks.ListForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.attachPosts(ctx, bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// ListFolderBookmarks fails with NotFound once the folder is gone.
func (s *Bookmarks) ListFolderBookmarks(ctx context.Context, owner, folderID uint64) ([]models.Bookmark, error) {
	if _, err := s.ownedFolder(ctx, owner, folderID); err != nil {
		return nil, err
	}

	bookmarks, err := s.bookmarks.ListForFolder(ctx, owner, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.attachPosts(ctx, bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

func (s *Bookmarks) CreateBookmark(ctx context.Context, owner, postID, folderID uint64) (*models.Bookmark, error) {
	switch {
	case postID == 0:
		return nil, models.FieldError("post", "This field is required.")
	case folderID == 0:
		return nil, models.FieldError("folder", "This field is required.")
	}

	bookmark, err := s.bookmarks.Create(ctx, owner, postID, folderID)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("bookmark created",
		"bookmark_id", bookmark.ID, "owner_id", owner, "post_id", postID, "folder_id", folderID)

	return s.withPost(ctx, bookmark)
}

func (s *Bookmarks) GetBookmark(ctx context.Context, owner, id uint64) (*models.Bookmark, error) {
	bookmark, err := s.bookmarks.Get(ctx, id, owner)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.notOwned(ctx, s.bookmarks.OwnerOf, id, err)
		}
		return nil, err
	}
	return s.withPost(ctx, bookmark)
}

func (s *Bookmarks) DeleteBookmark(ctx context.Context, owner, id uint64) error {
	if err := s.bookmarks.Delete(ctx, id, owner); err != nil {
		return err
	}

	s.logger.Infow("bookmark deleted", "bookmark_id", id, "owner_id", owner)
	return nil
}

// ownedFolder tells a folder that does not exist (NotFound) apart from one
// owned by someone else (Forbidden).
func (s *Bookmarks) ownedFolder(ctx context.Context, owner, id uint64) (*models.Folder, error) {
	folder, err := s.folders.Get(ctx, id, owner)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.notOwned(ctx, s.folders.OwnerOf, id, err)
		}
		return nil, err
	}
	return folder, nil
}

func (s *Bookmarks) notOwned(ctx context.Context, ownerOf func(context.Context, uint64) (uint64, error), id uint64, notFound error) error {
	if _, err := ownerOf(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound
		}
		return err
	}
	return models.ErrForbidden
}

// attachPosts fills in the post summary of each bookmark from the post
// repository. Bookmarks whose post has disappeared keep a nil Post.
func (s *Bookmarks) attachPosts(ctx context.Context, bookmarks []models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(bookmarks))
	seen := make(map[uint64]struct{}, len(bookmarks))
	for _, b := range bookmarks {
		if _, ok := seen[b.PostID]; ok {
			continue
		}
		seen[b.PostID] = struct{}{}
		ids = append(ids, b.PostID)
	}

	summaries, err := s.posts.Summaries(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "post summaries")
	}

	for i := range bookmarks {
		if summary, ok := summaries[bookmarks[i].PostID]; ok {
			summary := summary
			bookmarks[i].Post = &summary
		}
	}
	return nil
}

func (s *Bookmarks) withPost(ctx context.Context, bookmark *models.Bookmark) (*models.Bookmark, error) {
	list := []models.Bookmark{*bookmark}
	if err := s.attachPosts(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func cleanFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", models.FieldError("name", "This field may not be blank.")
	case utf8.RuneCountInString(name) > maxFolderNameLen:
		return "", models.FieldError("name", "Ensure this field has no more than 255 characters.")
	}
	return name, nil
}
