package store

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

// Posts is the read-only view of the posts table that bookmarks reference.
type Posts struct {
	db *gorm.DB
}

func NewPosts(gdb *gorm.DB) *Posts {
	return &Posts{db: gdb}
}

func (s *Posts) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	res := conn(ctx, s.db).Model(&db.Post{}).Where("id = ?", id).Count(&n)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "count posts")
	}
	return n > 0, nil
}

// Summaries returns title, author and image for each of the given posts that
// still exists, keyed by post id.
func (s *Posts) Summaries(ctx context.Context, ids []uint64) (map[uint64]models.PostSummary, error) {
	out := make(map[uint64]models.PostSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sql, args, err := squirrel.
		Select("p.id", "p.title", "u.username AS author", "p.image").
		From("posts p").
		Join("users u ON u.id = p.owner_id").
		Where(squirrel.Eq{"p.id": ids}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]models.PostSummary, 0, len(ids))
	res := conn(ctx, s.db).Raw(sql, args...).Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
