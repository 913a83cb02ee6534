package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"wedge-matrix/internal/domain"
	"wedge-matrix/internal/email"
	"wedge-matrix/internal/repository"
)

// TokenRevoker invalida todas las sesiones de un usuario.
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	matrices    repository.WedgeMatrixRepository
	emailSender email.Sender
	tokens      TokenRevoker
	limiter     AttemptLimiter
	now         func() time.Time
}

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	matrices repository.WedgeMatrixRepository,
	emailSender email.Sender,
	tokens TokenRevoker,
	limiter AttemptLimiter,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emailSender == nil {
		emailSender = email.NewDisabledSender("")
	}
	return &UserService{
		logger:      logger,
		users:       users,
		matrices:    matrices,
		emailSender: emailSender,
		tokens:      tokens,
		limiter:     limiter,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	TosAccepted bool
}

type UpdateUserInput struct {
	HasDismissedTutorial *bool
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// comparePassword siempre ejecuta bcrypt, aun sin usuario, para no filtrar su existencia por tiempo.
func comparePassword(hash string, password string) bool {
	if hash == "" {
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("wedge-matrix-placeholder"), bcrypt.DefaultCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register crea el usuario junto con su matriz por defecto y envia el correo de bienvenida.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" || input.Password == "" {
		return domain.User{}, wrap(ErrCouldNotCreateUser, errors.New("email and password are required"))
	}
	if s.limiter != nil && !s.limiter.Allow("register:"+emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		s.recordFailure("register:" + emailAddr)
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, classifyStoreError(s.logger, ErrCouldNotCreateUser, "create user failed", err)
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.TosAccepted {
		acceptedAt := now
		user.TosAcceptedAt = &acceptedAt
	}
	matrix := domain.NewDefaultWedgeMatrix(uuid.NewString(), user.ID, nil, now)

	if err := s.users.CreateWithWedgeMatrix(ctx, user, matrix); err != nil {
		return domain.User{}, classifyStoreError(s.logger, ErrCouldNotCreateUser, "create user failed", err)
	}

	if err := s.emailSender.SendWelcome(ctx, user.Email); err != nil {
		s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("user_id", user.ID))
	}
	user.WedgeMatrices = []domain.WedgeMatrix{matrix}
	return user, nil
}

// Authenticate verifica credenciales; cualquier fallo se reporta como ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if s.limiter != nil && !s.limiter.Allow("login:"+emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, err
	}
	if !comparePassword(user.PasswordHash, password) || emailAddr == "" {
		s.logger.Warn("log in attempt with invalid credentials", zap.String("email", emailAddr))
		s.recordFailure("login:" + emailAddr)
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// recordFailure solo cuenta intentos rechazados; los logins correctos nunca consumen cupo.
func (s *UserService) recordFailure(key string) {
	if s.limiter != nil {
		s.limiter.Fail(key)
	}
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetWithWedgeMatrices devuelve el usuario con sus matrices en orden de creacion.
func (s *UserService) GetWithWedgeMatrices(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	matrices, err := s.matrices.ListByUserID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.WedgeMatrices = matrices
	return user, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, user domain.User, input UpdateUserInput) (domain.User, error) {
	if input.HasDismissedTutorial == nil {
		return user, nil
	}
	now := s.now()
	if err := s.users.UpdatePreferences(ctx, user.ID, *input.HasDismissedTutorial, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, classifyStoreError(s.logger, ErrCouldNotUpdateUser, "update user failed", err)
	}
	user.HasDismissedTutorial = *input.HasDismissedTutorial
	user.UpdatedAt = now
	return user, nil
}

// Delete revoca todos los tokens, borra al usuario (con sus matrices) y avisa por correo.
func (s *UserService) Delete(ctx context.Context, user domain.User) error {
	emailAddr := user.Email
	if s.tokens != nil {
		if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
			return classifyStoreError(s.logger, ErrCouldNotDeleteUser, "revoke user tokens failed", err)
		}
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return classifyStoreError(s.logger, ErrCouldNotDeleteUser, "delete user failed", err)
	}
	if err := s.emailSender.SendAccountDeletion(ctx, emailAddr); err != nil {
		s.logger.Warn("send account deletion email failed", zap.Error(err), zap.String("user_id", user.ID))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
