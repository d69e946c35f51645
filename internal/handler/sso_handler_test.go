package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"commung/internal/domain"
	"commung/internal/middleware"
	"commung/internal/service"
	"commung/internal/testutil"
)

type ssoFixture struct {
	handler      *SSOHandler
	sessionRepo  *testutil.MockSessionRepository
	exchangeRepo *testutil.MockExchangeTokenRepository
}

// newSSOFixture wires an SSO handler over in-memory stores with one
// community at books.commu.ng.
func newSSOFixture() *ssoFixture {
	userRepo := testutil.NewMockUserRepository()
	sessionRepo := testutil.NewMockSessionRepository()
	exchangeRepo := testutil.NewMockExchangeTokenRepository()
	communityRepo := testutil.NewMockCommunityRepository()

	communityRepo.Communities["community-books"] = &domain.Community{
		ID:   "community-books",
		Slug: "books",
		Name: "Book Club",
	}

	resolver := service.NewCommunityService(communityRepo, "commu.ng")
	ssoService := service.NewSSOService(sessionRepo, exchangeRepo, resolver, "commu.ng", 24*time.Hour, 5*time.Minute)
	authService := service.NewAuthService(userRepo, sessionRepo, 24*time.Hour)

	return &ssoFixture{
		handler:      NewSSOHandler(ssoService, authService),
		sessionRepo:  sessionRepo,
		exchangeRepo: exchangeRepo,
	}
}

func (f *ssoFixture) consoleSession(token string) {
	f.sessionRepo.Sessions[token] = testutil.NewTestSession(
		testutil.WithToken(token),
		testutil.WithSessionUserID("user-1"),
	)
}

func TestSSOHandler_Initiate_MissingReturnTo(t *testing.T) {
	f := newSSOFixture()

	req := httptest.NewRequest(http.MethodGet, "/auth/sso", nil)
	w := httptest.NewRecorder()

	f.handler.Initiate(w, req)

	testutil.AssertJSONError(t, w, http.StatusBadRequest, "return_to")
}

func TestSSOHandler_Initiate_UnauthenticatedRedirectsToLogin(t *testing.T) {
	f := newSSOFixture()

	target := "/auth/sso?return_to=" + url.QueryEscape("https://books.commu.ng/")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()

	f.handler.Initiate(w, req)

	testutil.AssertStatusCode(t, w, http.StatusFound)

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect location: %v", err)
	}
	if loc.Host != "commu.ng" || loc.Path != "/login" {
		t.Errorf("expected redirect to console login, got %s", loc.String())
	}
	// The original request is carried so the flow resumes after login
	if next := loc.Query().Get("next"); !strings.Contains(next, "/auth/sso") {
		t.Errorf("expected next to resume the SSO flow, got %q", next)
	}
}

func TestSSOHandler_Initiate_Success(t *testing.T) {
	f := newSSOFixture()
	f.consoleSession("console-token")

	target := "/auth/sso?return_to=" + url.QueryEscape("https://books.commu.ng/threads/42")
	req := testutil.NewRequestWithCookie(t, http.MethodGet, target, middleware.SessionCookieName, "console-token")
	w := httptest.NewRecorder()

	f.handler.Initiate(w, req)

	testutil.AssertStatusCode(t, w, http.StatusFound)

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect location: %v", err)
	}
	if loc.Host != "books.commu.ng" || loc.Path != "/auth/callback" {
		t.Errorf("expected redirect to the community callback, got %s", loc.String())
	}
	if loc.Query().Get("token") == "" {
		t.Error("expected token query parameter")
	}
	if got := loc.Query().Get("return_path"); got != "/threads/42" {
		t.Errorf("expected return_path '/threads/42', got %q", got)
	}
	if len(f.exchangeRepo.Tokens) != 1 {
		t.Errorf("expected one minted exchange token, got %d", len(f.exchangeRepo.Tokens))
	}
}

func TestSSOHandler_Initiate_BearerHeaderAccepted(t *testing.T) {
	f := newSSOFixture()
	f.consoleSession("bearer-token")

	target := "/auth/sso?return_to=" + url.QueryEscape("https://books.commu.ng/")
	req := testutil.NewRequestWithBearer(t, http.MethodGet, target, "bearer-token")
	w := httptest.NewRecorder()

	f.handler.Initiate(w, req)

	testutil.AssertStatusCode(t, w, http.StatusFound)
}

func TestSSOHandler_Initiate_UnknownDomain(t *testing.T) {
	f := newSSOFixture()
	f.consoleSession("console-token")

	target := "/auth/sso?return_to=" + url.QueryEscape("https://unknown.commu.ng/")
	req := testutil.NewRequestWithCookie(t, http.MethodGet, target, middleware.SessionCookieName, "console-token")
	w := httptest.NewRecorder()

	f.handler.Initiate(w, req)

	testutil.AssertStatusCode(t, w, http.StatusNotFound)
}

func TestSSOHandler_Callback_Success(t *testing.T) {
	f := newSSOFixture()

	et := testutil.NewTestExchangeToken(
		testutil.WithExchangeUserID("user-1"),
		testutil.WithTargetDomain("books.commu.ng"),
	)
	f.exchangeRepo.Tokens[et.Token] = et

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/callback", CallbackRequest{
		Token:  et.Token,
		Domain: "books.commu.ng",
	})
	w := httptest.NewRecorder()

	f.handler.Callback(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)

	resp := testutil.DecodeJSON[CallbackResponse](t, w)
	if resp.SessionToken == "" {
		t.Fatal("expected a session token")
	}

	session, ok := f.sessionRepo.Sessions[resp.SessionToken]
	if !ok {
		t.Fatal("expected the session to be persisted")
	}
	if session.CommunityID != "community-books" {
		t.Errorf("expected a community-scoped session, got %q", session.CommunityID)
	}
	if session.UserID != "user-1" {
		t.Errorf("expected session for user-1, got %s", session.UserID)
	}
}

func TestSSOHandler_Callback_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body CallbackRequest
	}{
		{"missing token", CallbackRequest{Domain: "books.commu.ng"}},
		{"missing domain", CallbackRequest{Token: "some-token"}},
		{"both missing", CallbackRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSSOFixture()
			req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/callback", tt.body)
			w := httptest.NewRecorder()

			f.handler.Callback(w, req)

			testutil.AssertStatusCode(t, w, http.StatusBadRequest)
		})
	}
}

func TestSSOHandler_Callback_FailureStatuses(t *testing.T) {
	f := newSSOFixture()

	expired := testutil.NewTestExchangeToken(
		testutil.WithTargetDomain("books.commu.ng"),
		testutil.WithExchangeExpired(),
	)
	consumed := testutil.NewTestExchangeToken(
		testutil.WithTargetDomain("books.commu.ng"),
		testutil.WithConsumed(),
	)
	mismatched := testutil.NewTestExchangeToken(
		testutil.WithTargetDomain("books.commu.ng"),
	)
	f.exchangeRepo.Tokens[expired.Token] = expired
	f.exchangeRepo.Tokens[consumed.Token] = consumed
	f.exchangeRepo.Tokens[mismatched.Token] = mismatched

	tests := []struct {
		name       string
		token      string
		domain     string
		wantStatus int
		wantMsg    string
	}{
		{"unknown token", "never-issued", "books.commu.ng", http.StatusUnauthorized, "invalid"},
		{"expired token", expired.Token, "books.commu.ng", http.StatusUnauthorized, "expired"},
		{"consumed token", consumed.Token, "books.commu.ng", http.StatusUnauthorized, "already"},
		{"wrong domain", mismatched.Token, "games.commu.ng", http.StatusBadRequest, "domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/callback", CallbackRequest{
				Token:  tt.token,
				Domain: tt.domain,
			})
			w := httptest.NewRecorder()

			f.handler.Callback(w, req)

			testutil.AssertJSONError(t, w, tt.wantStatus, tt.wantMsg)
		})
	}

	// The domain mismatch above must not have burned the token
	if f.exchangeRepo.Tokens[mismatched.Token].ConsumedAt != nil {
		t.Error("domain mismatch must not consume the token")
	}
}

func TestSSOHandler_Callback_SecondRedemptionRejected(t *testing.T) {
	f := newSSOFixture()

	et := testutil.NewTestExchangeToken(
		testutil.WithTargetDomain("books.commu.ng"),
	)
	f.exchangeRepo.Tokens[et.Token] = et

	body := CallbackRequest{Token: et.Token, Domain: "books.commu.ng"}

	w := httptest.NewRecorder()
	f.handler.Callback(w, testutil.NewJSONRequest(t, http.MethodPost, "/auth/callback", body))
	testutil.AssertStatusCode(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	f.handler.Callback(w, testutil.NewJSONRequest(t, http.MethodPost, "/auth/callback", body))
	testutil.AssertJSONError(t, w, http.StatusUnauthorized, "already")
}
