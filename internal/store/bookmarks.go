package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

type PostChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

type Bookmarks struct {
	db    *gorm.DB
	posts PostChecker
}

func NewBookmarks(gdb *gorm.DB, posts PostChecker) *Bookmarks {
	return &Bookmarks{
		db:    gdb,
		posts: posts,
	}
}

func bookmarkQuery() squirrel.SelectBuilder {
	return squirrel.
		Select(
			"b.id", "b.owner_id", "u.username AS owner", "b.post_id",
			"b.folder_id", "f.name AS folder_name", "b.created_at",
		).
		From("bookmarks b").
		Join("users u ON u.id = b.owner_id").
		Join("folders f ON f.id = b.folder_id").
		OrderBy("b.created_at DESC", "b.id DESC")
}

// Create checks references and the (owner, post, folder) triple before
// inserting. The unique index stays the arbiter: a concurrent insert that
// slips past the check is still reported as a duplicate.
func (s *Bookmarks) Create(ctx context.Context, owner, postID, folderID uint64) (*models.Bookmark, error) {
	if err := s.checkReferences(ctx, owner, postID, folderID); err != nil {
		return nil, err
	}

	var n int64
	res := conn(ctx, s.db).
		Model(&db.Bookmark{}).
		Where("owner_id = ? AND post_id = ? AND folder_id = ?", owner, postID, folderID).
		Count(&n)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "count bookmarks")
	}
	if n > 0 {
		return nil, models.ErrDuplicateBookmark
	}

	model := db.Bookmark{
		OwnerID:  owner,
		PostID:   postID,
		FolderID: folderID,
	}
	res = conn(ctx, s.db).Omit(clause.Associations).Create(&model)
	if res.Error != nil {
		switch {
		case isUniqueViolation(res.Error):
			return nil, models.ErrDuplicateBookmark.WithCause(res.Error)
		case isForeignKeyViolation(res.Error):
			return nil, models.ErrInvalidReference.WithCause(res.Error)
		}
		return nil, errors.Wrap(res.Error, "create bookmark")
	}

	return s.Get(ctx, model.ID, owner)
}

func (s *Bookmarks) checkReferences(ctx context.Context, owner, postID, folderID uint64) error {
	var folder db.Folder
	res := conn(ctx, s.db).Select("owner_id").Where("id = ?", folderID).Take(&folder)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(res.Error, "get folder")
	}
	if res.Error != nil || folder.OwnerID != owner {
		return invalidReference("folder", folderID)
	}

	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return invalidReference("post", postID)
	}
	return nil
}

func invalidReference(field string, id uint64) error {
	err := models.Errorf(models.KindInvalidReference, "invalid %s", field)
	err.Fields = map[string]string{
		field: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id),
	}
	return err
}

func (s *Bookmarks) ListForOwner(ctx context.Context, owner uint64) ([]models.Bookmark, error) {
	return s.list(ctx, squirrel.Eq{"b.owner_id": owner})
}

func (s *Bookmarks) ListForFolder(ctx context.Context, owner, folderID uint64) ([]models.Bookmark, error) {
	return s.list(ctx, squirrel.Eq{"b.owner_id": owner, "b.folder_id": folderID})
}

func (s *Bookmarks) list(ctx context.Context, w squirrel.Eq) ([]models.Bookmark, error) {
	sql, args, err := bookmarkQuery().Where(w).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	bookmarks := make([]models.Bookmark, 0)
	res := conn(ctx, s.db).Raw(sql, args...).Scan(&bookmarks)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return bookmarks, nil
}

// Get returns NotFound both for a missing bookmark and for one owned by
// someone else.
func (s *Bookmarks) Get(ctx context.Context, id, owner uint64) (*models.Bookmark, error) {
	bookmarks, err := s.list(ctx, squirrel.Eq{"b.id": id, "b.owner_id": owner})
	if err != nil {
		return nil, err
	}
	if len(bookmarks) == 0 {
		return nil, models.ErrNotFound
	}
	return &bookmarks[0], nil
}

func (s *Bookmarks) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var model db.Bookmark
	res := conn(ctx, s.db).Select("owner_id").Where("id = ?", id).Take(&model)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return 0, models.ErrNotFound
		}
		return 0, errors.Wrap(res.Error, "get bookmark owner")
	}
	return model.OwnerID, nil
}

// Delete fails with NotFound for a missing bookmark and Forbidden for one
// owned by someone else.
func (s *Bookmarks) Delete(ctx context.Context, id, owner uint64) error {
	res := conn(ctx, s.db).
		Where("id = ? AND owner_id = ?", id, owner).
		Delete(&db.Bookmark{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete bookmark")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := s.OwnerOf(ctx, id); err != nil {
		return err
	}
	return models.ErrForbidden
}

// CountInFolder counts every bookmark pointing at the folder, whoever owns it.
func (s *Bookmarks) CountInFolder(ctx context.Context, folderID uint64) (int64, error) {
	var n int64
	res := conn(ctx, s.db).Model(&db.Bookmark{}).Where("folder_id = ?", folderID).Count(&n)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "count bookmarks")
	}
	return n, nil
}

func (s *Bookmarks) DeleteInFolder(ctx context.Context, owner, folderID uint64) (int64, error) {
	res := conn(ctx, s.db).
		Where("owner_id = ? AND folder_id = ?", owner, folderID).
		Delete(&db.Bookmark{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete bookmarks")
	}
	return res.RowsAffected, nil
}
