package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/validation"
)

// RegistrationCodeTTL срок жизни кода подтверждения регистрации.
const RegistrationCodeTTL = 15 * time.Minute

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	users        repository.UserRepository
	codes        repository.RegistrationCodeRepository
	tokenManager *TokenManager
	now          func() time.Time
}

// RegisterInput содержит данные для завершения регистрации.
type RegisterInput struct {
	Username    string
	Code        string
	Password    string
	DisplayName string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Username string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User        *entity.User
	AccessToken string
	ExpiresAt   time.Time
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, codes repository.RegistrationCodeRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		users:        users,
		codes:        codes,
		tokenManager: tokenManager,
		now:          time.Now,
	}
}

// SendOTP выпускает код подтверждения для ещё не зарегистрированного адреса.
// Писем сервис не отправляет: код пишется в лог и возвращается вызывающему.
func (s *AuthService) SendOTP(ctx context.Context, username string) (string, error) {
	username = normalizeUsername(username)
	if err := validation.ValidateEmail(username); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return "", apperror.ErrUsernameTaken
	} else if !apperror.IsNotFound(err) {
		return "", err
	}

	code, err := generateOTP()
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сгенерировать код")
	}

	now := s.now()
	if err := s.codes.Create(ctx, &entity.RegistrationCode{
		ID:        uuid.New(),
		Username:  username,
		Code:      code,
		ExpiresAt: now.Add(RegistrationCodeTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}

	logger.Log.WithFields(logrus.Fields{
		"username": username,
		"code":     code,
	}).Info("auth service: код подтверждения регистрации выпущен")

	return code, nil
}

// CompleteRegistration гасит код подтверждения и создаёт пользователя.
func (s *AuthService) CompleteRegistration(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := normalizeUsername(in.Username)
	if err := validation.ValidateEmail(username); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	ok, err := s.codes.Consume(ctx, username, strings.TrimSpace(in.Code), s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInvalidOTP
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user, err := entity.NewUser(username, in.DisplayName, string(passHash))
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("auth service: пользователь зарегистрирован")
	return s.issue(user)
}

// Login проверяет учётные данные и возвращает токен.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, normalizeUsername(in.Username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *entity.User) (*AuthResult, error) {
	token, exp, err := s.tokenManager.Issue(user.Principal())
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: exp}, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// generateOTP возвращает четырёхзначный код 1000..9999.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
