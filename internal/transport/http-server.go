package transport

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/service"
)

const ownerKey = "owner"

var Module = fx.Options(
	fx.Provide(NewHTTPServer),
	fx.Invoke(func(*HTTPServer) {}),
)

type (
	BookmarkService interface {
		ListFolders(ctx context.Context, owner uint64) ([]models.Folder, error)
		CreateFolder(ctx context.Context, owner uint64, name string) (*models.Folder, error)
		GetFolder(ctx context.Context, owner, id uint64) (*models.Folder, error)
		RenameFolder(ctx context.Context, owner, id uint64, name string) (*models.Folder, error)
		DeleteFolder(ctx context.Context, owner, id uint64) error
		ListBookmarks(ctx context.Context, owner uint64) ([]models.Bookmark, error)
		ListFolderBookmarks(ctx context.Context, owner, folderID uint64) ([]models.Bookmark, error)
		CreateBookmark(ctx context.Context, owner, postID, folderID uint64) (*models.Bookmark, error)
		GetBookmark(ctx context.Context, owner, id uint64) (*models.Bookmark, error)
		DeleteBookmark(ctx context.Context, owner, id uint64) error
	}

	AccountService interface {
		Register(ctx context.Context, username, email, pass string) (*db.User, error)
		Login(ctx context.Context, username, pass string) (*db.User, error)
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		echo      *echo.Echo
		bookmarks BookmarkService
		accounts  AccountService
		tokens    *auth.Tokens
		logger    *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	bookmarks *service.Bookmarks,
	accounts *service.General,
	tokens *auth.Tokens,
	logger *zap.SugaredLogger,
) *HTTPServer {
	instance := New(bookmarks, accounts, tokens, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.HTTPListen()
				logger.Infow("starting HTTP server", "listen", listen)
				if err := instance.echo.Start(listen); err != nil && err != http.ErrServerClosed {
					logger.Fatalw("HTTP server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return instance.echo.Shutdown(ctx)
		},
	})

	return instance
}

// New builds the router without binding a listener.
func New(bookmarks BookmarkService, accounts AccountService, tokens *auth.Tokens, logger *zap.SugaredLogger) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	instance := &HTTPServer{
		echo:      e,
		bookmarks: bookmarks,
		accounts:  accounts,
		tokens:    tokens,
		logger:    logger,
	}

	e.Pre(middleware.AddTrailingSlash())

	e.Use(middleware.CORS())
	e.Use(instance.requestLogger())
	e.Use(middleware.Recover())
	e.Use(instance.bodyLogger())
	e.Use(instance.AuthMiddleware)

	e.Validator = NewValidator()
	e.HTTPErrorHandler = instance.HTTPErrorHandler

	e.GET("/ping/", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	authG := e.Group("/auth")
	authG.POST("/register/", instance.Register)
	authG.POST("/login/", instance.Login)
	authG.POST("/logout/", instance.Logout)

	folderG := e.Group("/folders")
	folderG.GET("/", instance.FolderList)
	folderG.POST("/", instance.FolderCreate)
	folderG.GET("/:id/", instance.FolderGet)
	folderG.PUT("/:id/", instance.FolderRename)
	folderG.PATCH("/:id/", instance.FolderRename)
	folderG.DELETE("/:id/", instance.FolderDelete)
	folderG.GET("/:id/bookmarks/", instance.FolderBookmarks)

	bookmarkG := e.Group("/bookmarks")
	bookmarkG.GET("/", instance.BookmarkList)
	bookmarkG.POST("/", instance.BookmarkCreate)
	bookmarkG.GET("/:id/", instance.BookmarkGet)
	bookmarkG.DELETE("/:id/", instance.BookmarkDelete)

	return instance
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

////////

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate reports struct violations as a validation error keyed by the
// JSON field name.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &models.Error{
		Kind:    models.KindValidation,
		Message: models.ErrValidation.Message,
		Fields:  fields,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	}
	return "Invalid value."
}

func BindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return models.Errorf(models.KindValidation, "malformed request body").WithCause(err)
	}
	return c.Validate(v)
}

func GetOwnerFromContext(c echo.Context) (uint64, error) {
	owner, ok := c.Get(ownerKey).(uint64)
	if !ok || owner == 0 {
		return 0, models.ErrUnauthorized
	}
	return owner, nil
}

// GetAndParseParam reads a numeric path parameter. Anything that is not a
// positive integer cannot name an object, so it is reported as not found.
func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, models.ErrNotFound
	}
	return v, nil
}
