package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedge-matrix/internal/domain"
	"wedge-matrix/internal/email"
	"wedge-matrix/internal/repository"
	"wedge-matrix/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	matrices     *mockWedgeMatrixRepo
	deleteErr    error
}

func (m *mockUserRepo) CreateWithWedgeMatrix(_ context.Context, user domain.User, matrix domain.WedgeMatrix) error {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	m.matrices.items[matrix.ID] = matrix
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
	for mid, matrix := range m.matrices.items {
		if matrix.UserID == id {
			delete(m.matrices.items, mid)
		}
	}
	return nil
}

type mockWedgeMatrixRepo struct {
	items     map[string]domain.WedgeMatrix
	updateErr error
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
	list, _ := m.ListByUserID(ctx, userID)
	return len(list), nil
}

func (m *mockWedgeMatrixRepo) CreateWithinLimit(ctx context.Context, matrix domain.WedgeMatrix, limit int) error {
	if n, _ := m.CountByUserID(ctx, matrix.UserID); n >= limit {
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
	if n, _ := m.CountByUserID(ctx, userID); n <= 1 {
		return repository.ErrLastWedgeMatrix
	}
	delete(m.items, id)
	return nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) RenderWedgeMatrix(_ domain.WedgeMatrix) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 stub"), nil
}

// Mismo limite que LOGIN_RATE_LIMIT por defecto.
const testLoginRateLimit = 10

type testEnv struct {
	router   *gin.Engine
	users    *mockUserRepo
	matrices *mockWedgeMatrixRepo
	auth     *service.AuthService
	userSvc  *service.UserService
	renderer *stubRenderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	matrices := &mockWedgeMatrixRepo{items: make(map[string]domain.WedgeMatrix)}
	users := &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		matrices:     matrices,
	}
	logger := zap.NewNop()
	auth := service.NewAuthService(testSecret, time.Hour, service.NewMemoryTokenStore())
	limiter := service.NewAttemptLimiter(time.Minute, testLoginRateLimit)
	userSvc := service.NewUserService(logger, users, matrices, email.NewDisabledSender("mail disabled in tests"), auth, limiter)
	renderer := &stubRenderer{}
	matrixSvc := service.NewWedgeMatrixService(logger, matrices, renderer)

	router := NewRouter(
		logger,
		nil,
		BearerAuthMiddleware(logger, auth, userSvc),
		NewUserHandler(logger, userSvc, auth),
		NewWedgeMatrixHandler(logger, matrixSvc),
	)
	return &testEnv{router: router, users: users, matrices: matrices, auth: auth, userSvc: userSvc, renderer: renderer}
}

// registerAndLogin crea un usuario y devuelve el usuario y un token valido.
func (e *testEnv) registerAndLogin(t *testing.T, emailAddr string) (domain.User, string) {
	t.Helper()
	user, err := e.userSvc.Register(context.Background(), service.RegisterInput{
		Email:       emailAddr,
		Password:    "password123",
		TosAccepted: true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := e.auth.IssueToken(context.Background(), user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token.AccessToken
}

func (e *testEnv) firstMatrix(t *testing.T, userID string) domain.WedgeMatrix {
	t.Helper()
	list, _ := e.matrices.ListByUserID(context.Background(), userID)
	if len(list) == 0 {
		t.Fatalf("user %s has no matrices", userID)
	}
	return list[0]
}

func performRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}
