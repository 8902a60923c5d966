package echo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	api "github.com/covelight/agencydesk/api/echo"
	"github.com/covelight/agencydesk/config"
	"github.com/covelight/agencydesk/domain"
	"github.com/covelight/agencydesk/internal/fbads"
	"github.com/covelight/agencydesk/internal/federation"
	"github.com/covelight/agencydesk/services"
)

const (
	testCookieName = "adsk_session"
	clientBaseURL  = "https://app.example.com"
)

// --- fakes -----------------------------------------------------------------

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *domain.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type fakeTeamRepo struct {
	byEmail map[string]*domain.TeamMember
}

func (r *fakeTeamRepo) CreateTeamMember(_ context.Context, member *domain.TeamMember) error {
	r.byEmail[member.Email] = member
	return nil
}

func (r *fakeTeamRepo) GetTeamMemberByEmail(_ context.Context, email string) (*domain.TeamMember, error) {
	if m, ok := r.byEmail[email]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	records map[string]*domain.OAuthTokenRecord
	upserts int
}

func (r *fakeTokenRepo) key(userID, provider string) string { return userID + "/" + provider }

func (r *fakeTokenRepo) Upsert(_ context.Context, record *domain.OAuthTokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	key := r.key(record.UserID, record.Provider)
	if existing, ok := r.records[key]; ok && record.RefreshToken == "" {
		record.RefreshToken = existing.RefreshToken
	}
	stored := *record
	r.records[key] = &stored
	return nil
}

func (r *fakeTokenRepo) GetByUserAndProvider(_ context.Context, userID, provider string) (*domain.OAuthTokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[r.key(userID, provider)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, r.key(userID, provider))
	return nil
}

type fakeSessionStore struct {
	mu      sync.Mutex
	records map[string]*domain.SessionRecord
	seq     int
}

func (s *fakeSessionStore) Create(_ context.Context, user domain.SessionUser) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rec := &domain.SessionRecord{ID: "sess-" + user.UserID, User: user, CreatedAt: time.Now()}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *fakeSessionStore) Get(_ context.Context, id string) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

type fakeProvider struct {
	name          string
	lastState     string
	token         *oauth2.Token
	exchangeErr   error
	exchangeCalls int
	userInfo      *federation.ExternalUserInfo
	userInfoErr   error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	f.lastState = state
	return "https://provider.example/auth?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, _ string) (*oauth2.Token, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeProvider) Refresh(_ context.Context, _ string) (*oauth2.Token, error) {
	return f.token, nil
}

func (f *fakeProvider) FetchUserInfo(_ context.Context, _ *oauth2.Token) (*federation.ExternalUserInfo, error) {
	if f.userInfoErr != nil {
		return nil, f.userInfoErr
	}
	return f.userInfo, nil
}

var _ federation.OAuth2Provider = (*fakeProvider)(nil)

// --- harness ---------------------------------------------------------------

type harness struct {
	e        *echo.Echo
	users    *fakeUserRepo
	team     *fakeTeamRepo
	tokens   *fakeTokenRepo
	sessions *fakeSessionStore
	google   *fakeProvider
	facebook *fakeProvider
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.ServerConfig{
		ClientBaseURL:         clientBaseURL,
		SessionCookieName:     testCookieName,
		SessionTTLHours:       168,
		LegacyJWTSecret:       "test-legacy-secret",
		FacebookAdAccountID:   "12345",
		TokenRefreshMarginMin: 5,
	}

	h := &harness{
		users:    &fakeUserRepo{byEmail: make(map[string]*domain.User)},
		team:     &fakeTeamRepo{byEmail: make(map[string]*domain.TeamMember)},
		tokens:   &fakeTokenRepo{records: make(map[string]*domain.OAuthTokenRecord)},
		sessions: &fakeSessionStore{records: make(map[string]*domain.SessionRecord)},
		google: &fakeProvider{
			name: domain.ProviderGoogle,
			token: &oauth2.Token{
				AccessToken:  "g-access",
				RefreshToken: "g-refresh",
				Expiry:       time.Now().Add(55 * time.Minute),
			},
			userInfo: &federation.ExternalUserInfo{ProviderUserID: "g-1", Email: "owner@agency.com"},
		},
		facebook: &fakeProvider{
			name: domain.ProviderFacebook,
			token: &oauth2.Token{
				AccessToken: "fb-access",
				Expiry:      time.Now().Add(55 * time.Minute),
			},
			userInfo: &federation.ExternalUserInfo{ProviderUserID: "fb-1", Email: "owner@agency.com"},
		},
	}

	calendar := services.NewCalendarService(h.tokens, h.google, 5*time.Minute)
	a := api.NewAPI(cfg, h.users, h.team, h.tokens, h.sessions, map[string]federation.OAuth2Provider{
		domain.ProviderGoogle:   h.google,
		domain.ProviderFacebook: h.facebook,
	}, calendar, fbads.NewClient(nil))
	t.Cleanup(a.Close)

	h.e = echo.New()
	a.RegisterRoutes(h.e)
	return h
}

// seedUser registers a user and returns a logged-in session cookie.
func (h *harness) seedUser(t *testing.T, id, email, password string) *http.Cookie {
	t.Helper()
	h.users.byEmail[email] = &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: mustHash(t, password),
		Role:         domain.UserRoleAdmin,
	}
	rec, err := h.sessions.Create(context.Background(), domain.SessionUser{UserID: id, Email: email})
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: testCookieName, Value: rec.ID}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

// connect runs the connect flow for a provider and returns the state the
// provider received, for use in a follow-up callback request.
func (h *harness) connect(t *testing.T, provider string, cookie *http.Cookie) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/oauth/"+provider+"/connect", nil)
	req.AddCookie(cookie)
	rec := h.do(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("connect returned %d, want 302", rec.Code)
	}
	fp := h.google
	if provider == domain.ProviderFacebook {
		fp = h.facebook
	}
	if fp.lastState == "" {
		t.Fatal("provider did not receive a state value")
	}
	return fp.lastState
}
