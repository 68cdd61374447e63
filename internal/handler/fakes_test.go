package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/service"
	"github.com/iliyamo/user-management/internal/session"
	"github.com/iliyamo/user-management/internal/view"
)

const testSID = "test-sid"

type memSessions struct {
	mu         sync.Mutex
	identities map[string]model.Identity
	flashes    map[string]map[string][]string
}

func newMemSessions() *memSessions {
	return &memSessions{identities: map[string]model.Identity{}, flashes: map[string]map[string][]string{}}
}

func (m *memSessions) SetIdentity(_ context.Context, sid string, id model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[sid] = id
	return nil
}

func (m *memSessions) ClearIdentity(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, sid)
	return nil
}

func (m *memSessions) AddFlash(_ context.Context, sid, kind, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flashes[sid] == nil {
		m.flashes[sid] = map[string][]string{}
	}
	m.flashes[sid][kind] = append(m.flashes[sid][kind], msg)
	return nil
}

func (m *memSessions) Flashes(_ context.Context, sid string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.flashes[sid]
	delete(m.flashes, sid)
	return out, nil
}

func (m *memSessions) peek(kind string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flashes[testSID][kind]
}

// fakeAccounts records calls and returns canned results.
type fakeAccounts struct {
	calls []string

	page    service.UserPage
	pageArg [2]int
	listErr error

	signUp    service.SignUpResult
	signUpErr error

	block    service.BlockResult
	blockErr error

	updatePwErr  error
	loginStatErr error

	removed   map[uint64]bool
	removeErr error

	user    model.User
	userErr error

	edit    service.EditResult
	editErr error
}

func (f *fakeAccounts) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeAccounts) ListUsers(_ context.Context, page, limit int) (service.UserPage, error) {
	f.record("ListUsers")
	f.pageArg = [2]int{page, limit}
	return f.page, f.listErr
}

func (f *fakeAccounts) SignUp(_ context.Context, _ service.SignUpInput) (service.SignUpResult, error) {
	f.record("SignUp")
	return f.signUp, f.signUpErr
}

func (f *fakeAccounts) ToggleUserBlock(_ context.Context, _ uint64, _ bool) (service.BlockResult, error) {
	f.record("ToggleUserBlock")
	return f.block, f.blockErr
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, _, _ string) error {
	f.record("UpdatePassword")
	return f.updatePwErr
}

func (f *fakeAccounts) SetLoginStatus(_ context.Context, _ string) error {
	f.record("SetLoginStatus")
	return f.loginStatErr
}

func (f *fakeAccounts) RemoveUser(_ context.Context, id uint64) (bool, error) {
	f.record("RemoveUser")
	if f.removeErr != nil {
		return false, f.removeErr
	}
	if f.removed[id] {
		return false, nil
	}
	if f.removed == nil {
		f.removed = map[uint64]bool{}
	}
	f.removed[id] = true
	return true, nil
}

func (f *fakeAccounts) GetUserByID(_ context.Context, _ uint64) (model.User, error) {
	f.record("GetUserByID")
	return f.user, f.userErr
}

func (f *fakeAccounts) EditByID(_ context.Context, _ uint64, _ service.UserUpdate) (service.EditResult, error) {
	f.record("EditByID")
	return f.edit, f.editErr
}

// request builds an echo context with the session id (and identity when
// given) already set, the way the Session middleware leaves it.
type request struct {
	method, target, body, contentType string
	params                            map[string]string
	identity                          *model.Identity
	header                            map[string]string
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	r, err := view.NewRenderer()
	require.NoError(t, err)
	e.Renderer = r
	return e
}

func (r request) context(e *echo.Echo) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(r.method, r.target, strings.NewReader(r.body))
	if r.body != "" {
		ct := r.contentType
		if ct == "" {
			ct = echo.MIMEApplicationJSON
		}
		req.Header.Set(echo.HeaderContentType, ct)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(r.params) > 0 {
		names := make([]string, 0, len(r.params))
		values := make([]string, 0, len(r.params))
		for k, v := range r.params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	c.Set(session.ContextSID, testSID)
	if r.identity != nil {
		c.Set(session.ContextIdentity, *r.identity)
	}
	return c, rec
}

var (
	adminID = &model.Identity{UserID: 1, Email: "admin@example.com", Role: model.RoleAdmin, HasLoggedIn: true}
	userID7 = &model.Identity{UserID: 7, Email: "u7@example.com", Role: model.RoleUser}
)

func location(rec *httptest.ResponseRecorder) string { return rec.Header().Get(echo.HeaderLocation) }

