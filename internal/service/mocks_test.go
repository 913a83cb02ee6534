package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"wedge-matrix/internal/domain"
	"wedge-matrix/internal/repository"
)

var errConstraint = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	matrices     *mockWedgeMatrixRepo

	createErr error
	updateErr error
	deleteErr error
}

func newMockUserRepo(matrices *mockWedgeMatrixRepo) *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		matrices:     matrices,
	}
}

func (m *mockUserRepo) CreateWithWedgeMatrix(_ context.Context, user domain.User, matrix domain.WedgeMatrix) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	if m.matrices != nil {
		m.matrices.items[matrix.ID] = matrix
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) UpdatePreferences(_ context.Context, id string, hasDismissedTutorial bool, updatedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.HasDismissedTutorial = hasDismissedTutorial
	user.UpdatedAt = updatedAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.usersByID, id)
	delete(m.usersByEmail, user.Email)
	if m.matrices != nil {
		for mid, matrix := range m.matrices.items {
			if matrix.UserID == id {
				delete(m.matrices.items, mid)
			}
		}
	}
	return nil
}

type mockWedgeMatrixRepo struct {
	items map[string]domain.WedgeMatrix

	countErr  error
	createErr error
	updateErr error
	deleteErr error
	// countOverride simula otra request que cambio la cantidad entre el chequeo y la escritura.
	countOverride *int
}

func newMockWedgeMatrixRepo() *mockWedgeMatrixRepo {
	return &mockWedgeMatrixRepo{items: make(map[string]domain.WedgeMatrix)}
}

func (m *mockWedgeMatrixRepo) GetByID(_ context.Context, id string) (domain.WedgeMatrix, error) {
	matrix, ok := m.items[id]
	if !ok {
		return domain.WedgeMatrix{}, repository.ErrNotFound
	}
	return matrix, nil
}

func (m *mockWedgeMatrixRepo) ListByUserID(_ context.Context, userID string) ([]domain.WedgeMatrix, error) {
	out := make([]domain.WedgeMatrix, 0)
	for _, matrix := range m.items {
		if matrix.UserID == userID {
			out = append(out, matrix)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockWedgeMatrixRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	list, _ := m.ListByUserID(ctx, userID)
	return len(list), nil
}

func (m *mockWedgeMatrixRepo) lockedCount(ctx context.Context, userID string) int {
	if m.countOverride != nil {
		return *m.countOverride
	}
	n, _ := m.CountByUserID(ctx, userID)
	return n
}

func (m *mockWedgeMatrixRepo) CreateWithinLimit(ctx context.Context, matrix domain.WedgeMatrix, limit int) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.lockedCount(ctx, matrix.UserID) >= limit {
		return repository.ErrWedgeMatrixLimit
	}
	m.items[matrix.ID] = matrix
	return nil
}

func (m *mockWedgeMatrixRepo) Update(_ context.Context, matrix domain.WedgeMatrix) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.items[matrix.ID]; !ok {
		return repository.ErrNotFound
	}
	m.items[matrix.ID] = matrix
	return nil
}

func (m *mockWedgeMatrixRepo) DeleteUnlessLast(ctx context.Context, id, userID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if m.lockedCount(ctx, userID) <= 1 {
		return repository.ErrLastWedgeMatrix
	}
	matrix, ok := m.items[id]
	if !ok || matrix.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type mockEmailSender struct {
	welcomeTo  []string
	deletionTo []string
	err        error
}

func (m *mockEmailSender) SendWelcome(_ context.Context, toEmail string) error {
	m.welcomeTo = append(m.welcomeTo, toEmail)
	return m.err
}

func (m *mockEmailSender) SendAccountDeletion(_ context.Context, toEmail string) error {
	m.deletionTo = append(m.deletionTo, toEmail)
	return m.err
}

type mockTokenRevoker struct {
	revoked []string
	err     error
}

func (m *mockTokenRevoker) RevokeAll(_ context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return m.err
}

type mockRenderer struct {
	doc []byte
	err error
}

func (m *mockRenderer) RenderWedgeMatrix(_ domain.WedgeMatrix) ([]byte, error) {
	return m.doc, m.err
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func (denyLimiter) Fail(string) {}

var errUnexpected = errors.New("connection reset")
