package store

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

type Folders struct {
	db *gorm.DB
}

func NewFolders(gdb *gorm.DB) *Folders {
	return &Folders{db: gdb}
}

// folderQuery selects folders with bookmarks_count aggregated from the
// bookmarks table, newest first.
func folderQuery() squirrel.SelectBuilder {
	return squirrel.
		Select(
			"f.id", "f.owner_id", "u.username AS owner", "f.name",
			"f.created_at", "f.updated_at", "COUNT(b.id) AS bookmarks_count",
		).
		From("folders f").
		Join("users u ON u.id = f.owner_id").
		LeftJoin("bookmarks b ON b.folder_id = f.id").
		GroupBy("f.id", "f.owner_id", "u.username", "f.name", "f.created_at", "f.updated_at").
		OrderBy("f.created_at DESC", "f.id DESC")
}

func (s *Folders) Create(ctx context.Context, owner uint64, name string) (*models.Folder, error) {
	taken, err := s.nameTaken(ctx, owner, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrDuplicateName
	}

	model := db.Folder{
		Name:    name,
		OwnerID: owner,
	}
	res := conn(ctx, s.db).Omit(clause.Associations).Create(&model)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, models.ErrDuplicateName.WithCause(res.Error)
		}
		return nil, errors.Wrap(res.Error, "create folder")
	}

	return s.Get(ctx, model.ID, owner)
}

func (s *Folders) Rename(ctx context.Context, folder *models.Folder, name string) (*models.Folder, error) {
	taken, err := s.nameTaken(ctx, folder.OwnerID, name, folder.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrDuplicateName
	}

	res := conn(ctx, s.db).
		Model(&db.Folder{}).
		Where("id = ? AND owner_id = ?", folder.ID, folder.OwnerID).
		Updates(db.Folder{Name: name})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, models.ErrDuplicateName.WithCause(res.Error)
		}
		return nil, errors.Wrap(res.Error, "update folder")
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}

	return s.Get(ctx, folder.ID, folder.OwnerID)
}

// Delete removes the folder row only. The caller must have removed the
// folder's bookmarks already.
func (s *Folders) Delete(ctx context.Context, folder *models.Folder) error {
	res := conn(ctx, s.db).
		Where("id = ? AND owner_id = ?", folder.ID, folder.OwnerID).
		Delete(&db.Folder{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete folder")
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Folders) ListForOwner(ctx context.Context, owner uint64) ([]models.Folder, error) {
	sql, args, err := folderQuery().
		Where(squirrel.Eq{"f.owner_id": owner}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	folders := make([]models.Folder, 0)
	res := conn(ctx, s.db).Raw(sql, args...).Scan(&folders)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return folders, nil
}

// Get returns NotFound both for a missing folder and for one owned by
// someone else.
func (s *Folders) Get(ctx context.Context, id, owner uint64) (*models.Folder, error) {
	sql, args, err := folderQuery().
		Where(squirrel.Eq{"f.id": id, "f.owner_id": owner}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	folders := make([]models.Folder, 0, 1)
	res := conn(ctx, s.db).Raw(sql, args...).Scan(&folders)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	if len(folders) == 0 {
		return nil, models.ErrNotFound
	}
	return &folders[0], nil
}

// OwnerOf returns the owner of any folder, regardless of the caller.
func (s *Folders) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var model db.Folder
	res := conn(ctx, s.db).Select("owner_id").Where("id = ?", id).Take(&model)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return 0, models.ErrNotFound
		}
		return 0, errors.Wrap(res.Error, "get folder owner")
	}
	return model.OwnerID, nil
}

func (s *Folders) nameTaken(ctx context.Context, owner uint64, name string, except uint64) (bool, error) {
	var n int64
	q := conn(ctx, s.db).Model(&db.Folder{}).Where("owner_id = ? AND name = ?", owner, name)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if res := q.Count(&n); res.Error != nil {
		return false, errors.Wrap(res.Error, "count folders")
	}
	return n > 0, nil
}
