//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"commung/internal/domain"
)

var userCounter int64

// uniqueName returns a name that is unique across the whole test run,
// so tests can register users and communities without colliding.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, atomic.AddInt64(&userCounter, 1))
}

// doRequest performs an HTTP request against the test server. A
// non-empty token is sent as the session cookie, matching how browsers
// call the API.
func doRequest(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	}

	resp, err := testClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

// registerAndLogin creates a fresh account and returns its console
// session token together with the username.
func registerAndLogin(t *testing.T) (string, string) {
	t.Helper()

	username := uniqueName("user")
	resp := doRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_token" && cookie.Value != "" {
			return cookie.Value, username
		}
	}
	t.Fatal("login response did not set a session cookie")
	return "", ""
}

// createCommunity creates a community owned by the token's user.
func createCommunity(t *testing.T, consoleToken, slug string) *domain.Community {
	t.Helper()

	resp := doRequest(t, http.MethodPost, "/api/v1/communities", map[string]string{
		"slug": slug,
		"name": "Community " + slug,
	}, consoleToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create community failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var community domain.Community
	decodeBody(t, resp, &community)
	return &community
}

// initiateSSO runs GET /auth/sso and parses the exchange token and
// return path out of the redirect. The redirect itself points at the
// community domain, which does not resolve in the test environment, so
// the callback is invoked directly instead of following it.
func initiateSSO(t *testing.T, consoleToken, returnTo string) (string, string, string) {
	t.Helper()

	resp := doRequest(t, http.MethodGet, "/auth/sso?return_to="+url.QueryEscape(returnTo), nil, consoleToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("sso initiate failed with status %d", resp.StatusCode)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect location: %v", err)
	}

	return location.Query().Get("token"), location.Host, location.Query().Get("return_path")
}

// redeemToken posts the exchange token to /auth/callback and returns
// the raw response for the caller to assert on.
func redeemToken(t *testing.T, token, targetDomain string) *http.Response {
	t.Helper()

	return doRequest(t, http.MethodPost, "/auth/callback", map[string]string{
		"token":  token,
		"domain": targetDomain,
	}, "")
}

// communitySession runs the full SSO hand-off for the given community
// and returns a community-scoped session token.
func communitySession(t *testing.T, consoleToken, slug string) string {
	t.Helper()

	host := slug + "." + testMainDomain
	exchangeToken, _, _ := initiateSSO(t, consoleToken, "https://"+host+"/")

	resp := redeemToken(t, exchangeToken, host)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("callback failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var callback struct {
		SessionToken string `json:"session_token"`
	}
	decodeBody(t, resp, &callback)
	if callback.SessionToken == "" {
		t.Fatal("callback did not return a session token")
	}
	return callback.SessionToken
}

// createProfile provisions a community profile for the session.
func createProfile(t *testing.T, communityToken, handle string) *domain.Profile {
	t.Helper()

	resp := doRequest(t, http.MethodPut, "/api/v1/profile", map[string]string{
		"handle":       handle,
		"display_name": "Test " + handle,
	}, communityToken)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		t.Fatalf("profile upsert failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var profile domain.Profile
	decodeBody(t, resp, &profile)
	return &profile
}
