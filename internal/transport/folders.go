package transport

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

type (
	FolderReq struct {
		Name string `json:"name" validate:"required,max=255"`
	}

	FolderResp struct {
		ID             uint64    `json:"id"`
		Owner          string    `json:"owner"`
		Name           string    `json:"name"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
		BookmarksCount int64     `json:"bookmarks_count"`
	}
)

func newFolderResp(f *models.Folder) FolderResp {
	return FolderResp{
		ID:             f.ID,
		Owner:          f.Owner,
		Name:           f.Name,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
		BookmarksCount: f.BookmarksCount,
	}
}

func (s *HTTPServer) FolderList(c echo.Context) error {
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	folders, err := s.bookmarks.ListFolders(c.Request().Context(), owner)
	if err != nil {
		return err
	}

	resp := make([]FolderResp, len(folders))
	for i := range folders {
		resp[i] = newFolderResp(&folders[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) FolderCreate(c echo.Context) error {
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	req := FolderReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	folder, err := s.bookmarks.CreateFolder(c.Request().Context(), owner, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newFolderResp(folder))
}

func (s *HTTPServer) FolderGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	folder, err := s.bookmarks.GetFolder(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newFolderResp(folder))
}

func (s *HTTPServer) FolderRename(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	req := FolderReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	folder, err := s.bookmarks.RenameFolder(c.Request().Context(), owner, id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newFolderResp(folder))
}

func (s *HTTPServer) FolderDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	if err := s.bookmarks.DeleteFolder(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) FolderBookmarks(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	owner, err := GetOwnerFromContext(c)
	if err != nil {
		return err
	}

	bookmarks, err := s.bookmarks.ListFolderBookmarks(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newBookmarkList(bookmarks))
}
