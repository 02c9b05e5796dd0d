package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

var (
	ErrLoginUserNotFound         = errors.New("user not found")
	ErrLoginPasswordDoesNotMatch = errors.New("password does not match")
)

// General owns user accounts: registration and password login.
type General struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
	cost   int
}

func NewGeneral(gdb *gorm.DB, l *zap.SugaredLogger, cfg *config.Config) *General {
	return &General{
		db:     gdb,
		logger: l,
		cost:   cfg.BcryptCost,
	}
}

func (s *General) Register(ctx context.Context, username, email, pass string) (*db.User, error) {
	if err := s.checkAvailable(ctx, "username", username); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, "email", email); err != nil {
		return nil, err
	}

	hash, err := s.bcryptGen(pass)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}

	user := db.User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	res := s.db.WithContext(ctx).Create(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, s.registrationConflict(ctx, username, email)
		}
		return nil, errors.Wrap(res.Error, "create user")
	}

	s.logger.Infow("user registered", "user_id", user.ID)
	return &user, nil
}

func (s *General) Login(ctx context.Context, username, pass string) (*db.User, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).Where("username = ?", username).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrLoginUserNotFound
		}
		return nil, res.Error
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return nil, ErrLoginPasswordDoesNotMatch
	}

	return &user, nil
}

func (s *General) checkAvailable(ctx context.Context, column, value string) error {
	var n int64
	res := s.db.WithContext(ctx).Model(&db.User{}).Where(column+" = ?", value).Count(&n)
	if res.Error != nil {
		return errors.Wrap(res.Error, "count users")
	}
	if n > 0 {
		return models.FieldError(column, "A user with that "+column+" already exists.")
	}
	return nil
}

// registrationConflict names the field a concurrent registration took first.
func (s *General) registrationConflict(ctx context.Context, username, email string) error {
	if err := s.checkAvailable(ctx, "username", username); err != nil {
		return err
	}
	if err := s.checkAvailable(ctx, "email", email); err != nil {
		return err
	}
	return &models.Error{
		Kind:    models.KindValidation,
		Message: models.ErrValidation.Message,
		Fields: map[string]string{
			"username": "A user with that username or email already exists.",
			"email":    "A user with that username or email already exists.",
		},
	}
}

func (s *General) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *General) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
