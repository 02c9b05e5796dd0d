package transport

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

type (
	BookmarkReq struct {
		Post   uint64 `json:"post" validate:"required"`
		Folder uint64 `json:"folder" validate:"required"`
	}

	BookmarkResp struct {
		ID         uint64    `json:"id"`
		Owner      string    `json:"owner"`
		Post       uint64    `json:"post"`
		PostTitle  string    `json:"post_title"`
		PostAuthor string    `json:"post_author"`
		PostImage  string    `json:"post_image"`
		Folder     uint64    `json:"folder"`
		FolderName string    `json:"folder_name"`
		CreatedAt  time.Time `json:"created_at"`
	}
)

func newBookmarkResp(b *models.Bookmark) BookmarkResp {
	resp := BookmarkResp{
		ID:         b.ID,
		Owner:      b.Owner,
		Post:       b.PostID,
		Folder:     b.FolderID,
		FolderName: b.FolderName,
		CreatedAt:  b.CreatedAt,
	}
	if b.Post != nil {
		resp.PostTitle = b.Post.Title
		resp.PostAuthor = b.Post.Author
		resp.PostImage = b.Post.Image
	}
	return resp
}

func newBookmarkList(bookmarks []models.Bookmark) []BookmarkResp {
	resp := make([]BookmarkResp, len(bookmarks))
	for i := range bookmarks {
		resp[i] = newBookmarkResp(&bookmarks[i])
	}
	return resp
}

func (s *HTTPServer) BookmarkList(c echo.Context) error {
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	bookmarks, err := s.bookmarks.ListBookmarks(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newBookmarkList(bookmarks))
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	req := BookmarkReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.CreateBookmark(c.Request().Context(), owner, req.Post, req.Folder)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newBookmarkResp(bookmark))
}

func (s *HTTPServer) BookmarkGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	bookmark, err := s.bookmarks.GetBookmark(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newBookmarkResp(bookmark))
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	if err := s.bookmarks.DeleteBookmark(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
