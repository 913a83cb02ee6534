package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wedge-matrix/internal/domain"
	"wedge-matrix/internal/repository"
)

// DocumentRenderer produce el documento descargable de una matriz.
type DocumentRenderer interface {
	RenderWedgeMatrix(m domain.WedgeMatrix) ([]byte, error)
}

// WedgeMatrixService aplica las reglas de cantidad (1..5 por usuario) sobre las matrices.
// No verifica pertenencia: el llamador debe usar domain.CanAccess antes.
type WedgeMatrixService struct {
	logger   *zap.Logger
	matrices repository.WedgeMatrixRepository
	renderer DocumentRenderer
	now      func() time.Time
}

func NewWedgeMatrixService(logger *zap.Logger, matrices repository.WedgeMatrixRepository, renderer DocumentRenderer) *WedgeMatrixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WedgeMatrixService{
		logger:   logger,
		matrices: matrices,
		renderer: renderer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *WedgeMatrixService) List(ctx context.Context, userID string) ([]domain.WedgeMatrix, error) {
	matrices, err := s.matrices.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("list wedge matrices failed", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	return matrices, nil
}

func (s *WedgeMatrixService) Get(ctx context.Context, id string) (domain.WedgeMatrix, error) {
	matrix, err := s.matrices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.WedgeMatrix{}, ErrWedgeMatrixNotFound
		}
		return domain.WedgeMatrix{}, err
	}
	return matrix, nil
}

// Create agrega una matriz con valores por defecto.
func (s *WedgeMatrixService) Create(ctx context.Context, user domain.User, label *string) (domain.WedgeMatrix, error) {
	count, err := s.matrices.CountByUserID(ctx, user.ID)
	if err != nil {
		return domain.WedgeMatrix{}, classifyStoreError(s.logger, ErrCouldNotCreateWedgeMatrix, "create wedge matrix failed", err)
	}
	if count >= domain.MaxWedgeMatricesPerUser {
		return domain.WedgeMatrix{}, ErrWedgeMatrixLimitReached
	}

	matrix := domain.NewDefaultWedgeMatrix(uuid.NewString(), user.ID, label, s.now())
	if err := s.matrices.CreateWithinLimit(ctx, matrix, domain.MaxWedgeMatricesPerUser); err != nil {
		if errors.Is(err, repository.ErrWedgeMatrixLimit) {
			return domain.WedgeMatrix{}, ErrWedgeMatrixLimitReached
		}
		return domain.WedgeMatrix{}, classifyStoreError(s.logger, ErrCouldNotCreateWedgeMatrix, "create wedge matrix failed", err)
	}
	return matrix, nil
}

// Update aplica solo los campos presentes en el patch y persiste la matriz.
func (s *WedgeMatrixService) Update(ctx context.Context, matrix domain.WedgeMatrix, patch domain.WedgeMatrixPatch) (domain.WedgeMatrix, error) {
	if patch.IsEmpty() {
		return matrix, nil
	}
	patch.Apply(&matrix)
	matrix.UpdatedAt = s.now()

	if err := s.matrices.Update(ctx, matrix); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.WedgeMatrix{}, ErrWedgeMatrixNotFound
		}
		return domain.WedgeMatrix{}, classifyStoreError(s.logger, ErrCouldNotUpdateWedgeMatrix, "update wedge matrix failed", err)
	}
	return matrix, nil
}

// Delete rechaza borrar la ultima matriz del usuario. El store repite el chequeo bajo lock.
func (s *WedgeMatrixService) Delete(ctx context.Context, matrix domain.WedgeMatrix) error {
	count, err := s.matrices.CountByUserID(ctx, matrix.UserID)
	if err != nil {
		return classifyStoreError(s.logger, ErrCouldNotDeleteWedgeMatrix, "delete wedge matrix failed", err)
	}
	if count <= 1 {
		return ErrCannotDeleteLastWedgeMatrix
	}

	if err := s.matrices.DeleteUnlessLast(ctx, matrix.ID, matrix.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrLastWedgeMatrix):
			return ErrCannotDeleteLastWedgeMatrix
		case errors.Is(err, repository.ErrNotFound):
			return ErrWedgeMatrixNotFound
		}
		return classifyStoreError(s.logger, ErrCouldNotDeleteWedgeMatrix, "delete wedge matrix failed", err)
	}
	return nil
}

// Download renderiza la matriz; cualquier fallo del renderer se reporta igual.
func (s *WedgeMatrixService) Download(_ context.Context, matrix domain.WedgeMatrix) ([]byte, error) {
	if s.renderer == nil {
		return nil, wrap(ErrCouldNotDownloadWedgeMatrix, errors.New("renderer not configured"))
	}
	doc, err := s.renderer.RenderWedgeMatrix(matrix)
	if err != nil {
		s.logger.Error("render wedge matrix failed", zap.Error(err), zap.String("wedge_matrix_id", matrix.ID))
		return nil, wrap(ErrCouldNotDownloadWedgeMatrix, err)
	}
	return doc, nil
}
