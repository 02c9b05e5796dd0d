package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/service"
)

type (
	RegisterReq struct {
		Username string `json:"username" validate:"required,max=150"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	LoginReq struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	UserResp struct {
		PK       uint64 `json:"pk"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	LoginResp struct {
		Access string   `json:"access"`
		User   UserResp `json:"user"`
	}
)

// Register creates the account and leaves the client logged out.
func (s *HTTPServer) Register(c echo.Context) error {
	req := RegisterReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := s.accounts.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		return err
	}

	s.expireCookies(c)
	return c.JSON(http.StatusCreated, map[string]string{"detail": "Registered successfully"})
}

func (s *HTTPServer) Login(c echo.Context) error {
	req := LoginReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.accounts.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginUserNotFound) || errors.Is(err, service.ErrLoginPasswordDoesNotMatch) {
			return models.FieldError("non_field_errors", "Unable to log in with provided credentials.")
		}
		return err
	}

	token, exp, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return err
	}
	c.SetCookie(s.tokens.Cookie(token, exp))

	return c.JSON(http.StatusOK, LoginResp{
		Access: token,
		User: UserResp{
			PK:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

func (s *HTTPServer) Logout(c echo.Context) error {
	s.expireCookies(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *HTTPServer) expireCookies(c echo.Context) {
	for _, cookie := range s.tokens.ExpiredCookies() {
		c.SetCookie(cookie)
	}
}
