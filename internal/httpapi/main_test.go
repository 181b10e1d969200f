package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/hierarchy"
	"swasthya.org/internal/report"
)

// fakeStore backs all three store interfaces for handler tests.
type fakeStore struct {
	users     map[string]*auth.User
	districts map[string]*hierarchy.District
	blocks    map[string]*hierarchy.Block
	reports   map[string]*report.Report
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*auth.User{},
		districts: map[string]*hierarchy.District{},
		blocks:    map[string]*hierarchy.Block{},
		reports:   map[string]*report.Report{},
	}
}

func (f *fakeStore) FindUser(ctx context.Context, id string) (*auth.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, u *auth.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) SetUserStatus(ctx context.Context, userID, status string) error {
	u, ok := f.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeStore) FindDistrict(ctx context.Context, id string) (*hierarchy.District, error) {
	d, ok := f.districts[id]
	if !ok {
		return nil, hierarchy.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) FindBlock(ctx context.Context, id string) (*hierarchy.Block, error) {
	b, ok := f.blocks[id]
	if !ok {
		return nil, hierarchy.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpdateDistrict(ctx context.Context, d *hierarchy.District) error {
	if _, ok := f.districts[d.ID]; !ok {
		return hierarchy.ErrNotFound
	}
	f.districts[d.ID] = d
	return nil
}

func (f *fakeStore) UpdateBlock(ctx context.Context, b *hierarchy.Block) error {
	if _, ok := f.blocks[b.ID]; !ok {
		return hierarchy.ErrNotFound
	}
	f.blocks[b.ID] = b
	return nil
}

func (f *fakeStore) SetBlockOfficer(ctx context.Context, blockID string, officer hierarchy.OfficerBinding) error {
	b, ok := f.blocks[blockID]
	if !ok {
		return hierarchy.ErrNotFound
	}
	b.Officer = officer
	return nil
}

func (f *fakeStore) CreateReport(ctx context.Context, r *report.Report) error {
	f.reports[r.ID] = r
	return nil
}

func (f *fakeStore) FindReport(ctx context.Context, id string) (*report.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListReports(ctx context.Context, districtID string, limit int) ([]*report.Report, error) {
	var res []*report.Report
	for _, r := range f.reports {
		if districtID != "" && r.DistrictID != districtID {
			continue
		}
		res = append(res, r)
		if len(res) >= limit {
			break
		}
	}
	return res, nil
}

func (f *fakeStore) UpdateReport(ctx context.Context, r *report.Report) error {
	if _, ok := f.reports[r.ID]; !ok {
		return report.ErrNotFound
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeStore) DeleteReport(ctx context.Context, id string) error {
	if _, ok := f.reports[id]; !ok {
		return report.ErrNotFound
	}
	delete(f.reports, id)
	return nil
}

type testEnv struct {
	api   *API
	codec *auth.Codec
	store *fakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := auth.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := newFakeStore()
	authSvc, err := auth.NewService(codec, store)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	hierSvc, err := hierarchy.NewService(store)
	if err != nil {
		t.Fatalf("hierarchy.NewService: %v", err)
	}
	reportSvc, err := report.NewService(store)
	if err != nil {
		t.Fatalf("report.NewService: %v", err)
	}

	api := New(Options{
		Auth:      authSvc,
		Hierarchy: hierSvc,
		Reports:   reportSvc,
		Log:       zerolog.Nop(),
		Version:   "test",
	})
	return &testEnv{api: api, codec: codec, store: store}
}

func (e *testEnv) addUser(t *testing.T, id string, role auth.Role) *auth.User {
	t.Helper()
	u := &auth.User{
		ID:     id,
		Email:  id + "@example.org",
		Status: auth.StatusActive,
		RoleInfo: auth.RoleInfo{
			Role: role,
		},
	}
	e.store.users[id] = u
	return u
}

func (e *testEnv) accessToken(t *testing.T, u *auth.User) string {
	t.Helper()
	tok, err := e.codec.IssueAccess(u.ID, u.Role())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return tok.Value
}

func (e *testEnv) refreshToken(t *testing.T, u *auth.User) string {
	t.Helper()
	tok, err := e.codec.IssueRefresh(u.ID, u.Role())
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	return tok.Value
}

// expiredAccessToken signs with the same secret but an hour in the past.
func expiredAccessToken(t *testing.T, u *auth.User) string {
	t.Helper()
	past, err := auth.NewCodec("test-secret",
		auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }),
		auth.WithAccessTTL(time.Minute),
	)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	tok, err := past.IssueAccess(u.ID, u.Role())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return tok.Value
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)
	return rr
}

func withAccessCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: accessCookieName, Value: token})
	return req
}

func withRefreshCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: token})
	return req
}

func responseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
