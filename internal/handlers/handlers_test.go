package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ecostore/apiserver/internal/auth"
	"github.com/ecostore/apiserver/internal/services"
	"github.com/ecostore/apiserver/internal/store"
	"github.com/ecostore/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryUsers struct {
	mu   sync.Mutex
	byID map[string]types.User
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) List(context.Context) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) Update(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memoryProducts struct {
	items []types.Product
}

func (m *memoryProducts) List(_ context.Context, offset, limit int) ([]types.Product, int, error) {
	if offset >= len(m.items) {
		return nil, len(m.items), nil
	}
	end := min(offset+limit, len(m.items))
	return m.items[offset:end], len(m.items), nil
}

func (m *memoryProducts) Get(_ context.Context, id int) (types.Product, error) {
	for _, p := range m.items {
		if p.ID == id {
			return p, nil
		}
	}
	return types.Product{}, store.ErrNotFound
}

func (m *memoryProducts) Create(_ context.Context, p types.Product) (types.Product, error) {
	p.ID = len(m.items) + 1
	m.items = append(m.items, p)
	return p, nil
}

func (m *memoryProducts) Update(_ context.Context, p types.Product) (types.Product, error) {
	for i := range m.items {
		if m.items[i].ID == p.ID {
			m.items[i] = p
			return p, nil
		}
	}
	return types.Product{}, store.ErrNotFound
}

func (m *memoryProducts) Delete(_ context.Context, id int) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memoryWriter struct {
	keys []string
}

func (w *memoryWriter) PutJSON(_ context.Context, key string, _ any) error {
	w.keys = append(w.keys, key)
	return nil
}

type testAPI struct {
	router   http.Handler
	tokens   *auth.TokenService
	users    *memoryUsers
	products *memoryProducts
	writer   *memoryWriter
	mw       *AuthMiddleware
}

type apiOptions struct {
	denylist   auth.Denylist
	allowAdmin bool
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()
	tokens, err := auth.NewTokenService("handler-secret", time.Hour)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	api := &testAPI{
		tokens:   tokens,
		users:    &memoryUsers{byID: map[string]types.User{}},
		products: &memoryProducts{},
		writer:   &memoryWriter{},
	}
	api.mw = NewAuthMiddleware(tokens, opts.denylist, nil, logger)

	authService := services.NewAuthService(services.AuthDeps{
		Users:            api.users,
		Hasher:           auth.NewPasswordHasher(bcrypt.MinCost, 2),
		Tokens:           tokens,
		Denylist:         opts.denylist,
		Logger:           logger,
		AllowAdminSignup: opts.allowAdmin,
	})
	productService := services.NewProductService(api.products)

	r := chi.NewRouter()
	r.Use(Recoverer(logger))
	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)
	r.Get("/health", Health)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, authService, api.mw, logger, opts.denylist != nil)
		})
		r.Route("/user", func(r chi.Router) {
			UserRouter(r, api.mw)
		})
		r.Route("/admin", func(r chi.Router) {
			AdminRouter(r, AdminDeps{
				UserService:    services.NewUserService(api.users),
				ExportService:  services.NewExportService(api.users, api.writer),
				ProductService: productService,
				Logger:         logger,
			}, api.mw)
		})
		r.Route("/products", func(r chi.Router) {
			ProductRouter(r, productService, logger)
		})
	})
	api.router = r
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// seed stores a user directly and returns a token for it.
func (a *testAPI) seed(t *testing.T, email string, role types.Role) (types.User, string) {
	t.Helper()
	user, err := a.users.Create(context.Background(), types.User{Name: email, Email: email, Role: role, PasswordHash: "x"})
	require.NoError(t, err)
	token, err := a.tokens.IssueDefault(auth.TokenPayload{UserID: user.ID, Email: user.Email, Role: user.Role})
	require.NoError(t, err)
	return user, token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["error"].(string)
	return msg
}
