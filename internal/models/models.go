package models

import "time"

type (
	// Folder is a named per-user collection of bookmarks. BookmarksCount is
	// computed when the folder is read and is never stored.
	Folder struct {
		ID             uint64
		OwnerID        uint64
		Owner          string
		Name           string
		CreatedAt      time.Time
		UpdatedAt      time.Time
		BookmarksCount int64
	}

	// Bookmark records that a user saved a post into one of their folders.
	Bookmark struct {
		ID         uint64
		OwnerID    uint64
		Owner      string
		PostID     uint64
		FolderID   uint64
		FolderName string
		CreatedAt  time.Time

		// Post is filled in at read time from the post repository.
		Post *PostSummary `gorm:"-"`
	}

	PostSummary struct {
		ID     uint64
		Title  string
		Author string
		Image  string
	}
)
