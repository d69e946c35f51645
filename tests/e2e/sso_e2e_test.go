//go:build e2e
// +build e2e

package e2e

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

func TestSSO_FullHandOff(t *testing.T) {
	consoleToken, _ := registerAndLogin(t)
	slug := uniqueName("books")
	createCommunity(t, consoleToken, slug)

	host := slug + "." + testMainDomain
	exchangeToken, redirectHost, returnPath := initiateSSO(t, consoleToken, "https://"+host+"/threads/42")

	if exchangeToken == "" {
		t.Fatal("redirect did not carry an exchange token")
	}
	if redirectHost != host {
		t.Errorf("Expected redirect to %s, got %s", host, redirectHost)
	}
	if returnPath != "/threads/42" {
		t.Errorf("Expected return_path /threads/42, got %s", returnPath)
	}

	resp := redeemToken(t, exchangeToken, host)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("callback failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var callback struct {
		Message      string `json:"message"`
		SessionToken string `json:"session_token"`
	}
	decodeBody(t, resp, &callback)
	if callback.SessionToken == "" {
		t.Fatal("callback did not return a session token")
	}
	if callback.SessionToken == consoleToken {
		t.Error("community session must be a distinct token from the console session")
	}

	// The community session works on community-scoped endpoints
	profile := createProfile(t, callback.SessionToken, uniqueName("alice"))
	if profile.ID == "" {
		t.Error("Expected profile to be created with the community session")
	}

	// ...but is rejected on console-scoped endpoints
	resp = doRequest(t, http.MethodGet, "/api/v1/communities", nil, callback.SessionToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for community session on console endpoint, got %d", resp.StatusCode)
	}

	// And the console session is rejected on community endpoints
	resp = doRequest(t, http.MethodGet, "/api/v1/profile", nil, consoleToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for console session on community endpoint, got %d", resp.StatusCode)
	}
}

func TestSSO_TokenIsSingleUse(t *testing.T) {
	consoleToken, _ := registerAndLogin(t)
	slug := uniqueName("games")
	createCommunity(t, consoleToken, slug)

	host := slug + "." + testMainDomain
	exchangeToken, _, _ := initiateSSO(t, consoleToken, "https://"+host+"/")

	resp := redeemToken(t, exchangeToken, host)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first redemption failed with status %d", resp.StatusCode)
	}

	resp = redeemToken(t, exchangeToken, host)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 for second redemption, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "already used") {
		t.Errorf("Expected 'already used' error, got %s", body)
	}
}

func TestSSO_ParallelRedemptionHasOneWinner(t *testing.T) {
	consoleToken, _ := registerAndLogin(t)
	slug := uniqueName("race")
	createCommunity(t, consoleToken, slug)

	host := slug + "." + testMainDomain
	exchangeToken, _, _ := initiateSSO(t, consoleToken, "https://"+host+"/")

	const attempts = 8
	statuses := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := redeemToken(t, exchangeToken, host)
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, status := range statuses {
		switch status {
		case http.StatusOK:
			winners++
		case http.StatusUnauthorized:
		default:
			t.Errorf("Unexpected status %d during parallel redemption", status)
		}
	}

	if winners != 1 {
		t.Errorf("Expected exactly 1 successful redemption, got %d (statuses: %v)", winners, statuses)
	}
}

func TestSSO_DomainMismatchDoesNotBurnToken(t *testing.T) {
	consoleToken, _ := registerAndLogin(t)
	slugA := uniqueName("alpha")
	slugB := uniqueName("beta")
	createCommunity(t, consoleToken, slugA)
	createCommunity(t, consoleToken, slugB)

	hostA := slugA + "." + testMainDomain
	hostB := slugB + "." + testMainDomain
	exchangeToken, _, _ := initiateSSO(t, consoleToken, "https://"+hostA+"/")

	resp := redeemToken(t, exchangeToken, hostB)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for wrong domain, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "different domain") {
		t.Errorf("Expected domain mismatch error, got %s", body)
	}

	// The failed attempt must not consume the token
	resp = redeemToken(t, exchangeToken, hostA)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected redemption on the correct domain to still succeed, got %d", resp.StatusCode)
	}
}

func TestSSO_CustomDomain(t *testing.T) {
	consoleToken, _ := registerAndLogin(t)
	slug := uniqueName("indie")
	createCommunity(t, consoleToken, slug)

	customHost := slug + "-forum.example.com"
	resp := doRequest(t, http.MethodPost, "/api/v1/communities/"+slug+"/domains", map[string]string{
		"domain": customHost,
	}, consoleToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add domain failed with status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	exchangeToken, redirectHost, _ := initiateSSO(t, consoleToken, "https://"+customHost+"/welcome")
	if redirectHost != customHost {
		t.Errorf("Expected redirect to %s, got %s", customHost, redirectHost)
	}

	resp = redeemToken(t, exchangeToken, customHost)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected redemption on custom domain to succeed, got %d", resp.StatusCode)
	}
}

func TestSSO_UnknownDomain(t *testing.T) {
	consoleToken, _ := registerAndLogin(t)

	resp := doRequest(t, http.MethodGet,
		"/auth/sso?return_to="+url.QueryEscape("https://nobody-registered-this.commu.ng/"), nil, consoleToken)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unregistered domain, got %d: %s", resp.StatusCode, body)
	}
}

func TestSSO_UnauthenticatedRedirectsToLogin(t *testing.T) {
	resp := doRequest(t, http.MethodGet,
		"/auth/sso?return_to="+url.QueryEscape("https://anything."+testMainDomain+"/"), nil, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected 302 redirect to login, got %d", resp.StatusCode)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect location: %v", err)
	}
	if location.Host != testMainDomain {
		t.Errorf("Expected redirect to console host %s, got %s", testMainDomain, location.Host)
	}
	if location.Path != "/login" {
		t.Errorf("Expected redirect to /login, got %s", location.Path)
	}
	if !strings.Contains(location.Query().Get("next"), "/auth/sso") {
		t.Error("Expected next parameter to resume the hand-off")
	}
}

func TestAuth_LogoutInvalidatesSession(t *testing.T) {
	consoleToken, username := registerAndLogin(t)

	resp := doRequest(t, http.MethodGet, "/api/v1/auth/me", nil, consoleToken)
	var me struct {
		Username string `json:"username"`
	}
	decodeBody(t, resp, &me)
	if me.Username != username {
		t.Errorf("Expected /auth/me to return %s, got %s", username, me.Username)
	}

	resp = doRequest(t, http.MethodPost, "/auth/logout", nil, consoleToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout failed with status %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, "/api/v1/auth/me", nil, consoleToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", resp.StatusCode)
	}
}
