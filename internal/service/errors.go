package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wedge-matrix/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already taken")
	ErrCouldNotCreateUser = errors.New("could not create user")
	ErrCouldNotDeleteUser = errors.New("could not delete user")
	ErrCouldNotUpdateUser = errors.New("could not update user")

	ErrWedgeMatrixNotFound         = errors.New("wedge matrix not found")
	ErrWedgeMatrixLimitReached     = errors.New("wedge matrix limit reached")
	ErrCouldNotCreateWedgeMatrix   = errors.New("could not create wedge matrix")
	ErrCouldNotUpdateWedgeMatrix   = errors.New("could not update wedge matrix")
	ErrCannotDeleteLastWedgeMatrix = errors.New("cannot delete last wedge matrix")
	ErrCouldNotDeleteWedgeMatrix   = errors.New("could not delete wedge matrix")
	ErrCouldNotDownloadWedgeMatrix = errors.New("could not download wedge matrix")

	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// wrap conserva el sentinel de negocio y la causa original para errors.Is.
func wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// classifyStoreError envuelve con sentinel los rechazos del motor de base de datos; el resto se
// propaga sin cambios y termina como error inesperado.
func classifyStoreError(logger *zap.Logger, sentinel error, msg string, err error) error {
	if repository.IsStoreError(err) {
		logger.Error(msg, zap.Error(err))
		return wrap(sentinel, err)
	}
	logger.Error("unexpected error: "+msg, zap.Error(err))
	return err
}
