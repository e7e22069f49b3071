package bluelink

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const (
	testUsername = "user@example.com"
	testPassword = "hunter2"
	testPIN      = "1234"
)

func testAccount(t *testing.T) *Account {
	t.Helper()
	account, err := New(testUsername, testPassword, testPIN, RegionEurope, BrandHyundai)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	return account
}

// testJWT builds an unsigned token with the given expiry. Only the exp claim is read.
func testJWT(exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp.Unix())))
	return header + "." + payload + ".x"
}

func tokenReply(exp time.Time) map[string]interface{} {
	return map[string]interface{}{
		"access_token":  testJWT(exp),
		"refresh_token": "refresh-1",
		"token_type":    "bearer",
		"expires_in":    3600,
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", testPassword, testPIN, RegionEurope, BrandHyundai); err == nil {
		t.Errorf("expected error for missing username")
	}
	if _, err := New(testUsername, "", testPIN, RegionEurope, BrandHyundai); err == nil {
		t.Errorf("expected error for missing password")
	}
	if _, err := New(testUsername, testPassword, testPIN, Region(99), BrandHyundai); err == nil {
		t.Errorf("expected error for unknown region")
	}
}

func TestLoginStoresTokens(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)
	exp := time.Now().Add(2 * time.Hour)
	httpmock.RegisterResponder(http.MethodPost, "https://"+account.Host+"/api/v1/user/signin",
		func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("Ccsp-Device-Id") == "" {
				t.Errorf("missing Ccsp-Device-Id header")
			}
			if r.Header.Get("Transaction-Id") == "" {
				t.Errorf("missing Transaction-Id header")
			}
			return httpmock.NewJsonResponse(http.StatusOK, tokenReply(exp))
		})

	if err := account.Login(context.Background()); err != nil {
		t.Fatalf("Login: %s", err)
	}
	if account.accessToken == "" || account.refreshToken != "refresh-1" {
		t.Errorf("tokens not stored: %q / %q", account.accessToken, account.refreshToken)
	}
	if delta := account.tokenExpiry.Sub(exp); delta < -time.Second || delta > time.Second {
		t.Errorf("token expiry %s not derived from exp claim", account.tokenExpiry)
	}

	// A fresh token should not trigger another request.
	if err := account.CheckAndRefreshToken(context.Background()); err != nil {
		t.Fatalf("CheckAndRefreshToken: %s", err)
	}
	if count := httpmock.GetTotalCallCount(); count != 1 {
		t.Errorf("expected 1 request, got %d", count)
	}
}

func TestCheckAndRefreshTokenRefreshes(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)
	account.accessToken = testJWT(time.Now().Add(10 * time.Second))
	account.refreshToken = "refresh-0"
	account.tokenExpiry = time.Now().Add(10 * time.Second)

	exp := time.Now().Add(2 * time.Hour)
	httpmock.RegisterResponder(http.MethodPost, "https://"+account.Host+"/api/v1/user/oauth2/token",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, tokenReply(exp)))

	if err := account.CheckAndRefreshToken(context.Background()); err != nil {
		t.Fatalf("CheckAndRefreshToken: %s", err)
	}
	if account.refreshToken != "refresh-1" {
		t.Errorf("refresh token not rotated: %q", account.refreshToken)
	}
	if time.Until(account.tokenExpiry) < time.Hour {
		t.Errorf("token expiry not extended: %s", account.tokenExpiry)
	}
}

func TestRefreshFallsBackToLogin(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)
	account.refreshToken = "refresh-stale"

	httpmock.RegisterResponder(http.MethodPost, "https://"+account.Host+"/api/v1/user/oauth2/token",
		httpmock.NewStringResponder(http.StatusInternalServerError, "refresh token revoked"))
	httpmock.RegisterResponder(http.MethodPost, "https://"+account.Host+"/api/v1/user/signin",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, tokenReply(time.Now().Add(2*time.Hour))))

	if err := account.CheckAndRefreshToken(context.Background()); err != nil {
		t.Fatalf("CheckAndRefreshToken: %s", err)
	}
	if account.accessToken == "" {
		t.Errorf("access token not set after fallback login")
	}
}

func TestSendStatusCodeMapping(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)

	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrInvalidSession},
		{http.StatusForbidden, ErrInvalidSession},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, test := range tests {
		// Invalid-session responses clear the stored token, so restore it per case.
		account.accessToken = testJWT(time.Now().Add(time.Hour))
		httpmock.RegisterResponder(http.MethodGet, "https://"+account.Host+"/api/v1/spa/vehicles",
			httpmock.NewStringResponder(test.status, ""))
		_, err := account.Vehicles(context.Background())
		if !errors.Is(err, test.want) {
			t.Errorf("status %d: expected %v, got %v", test.status, test.want, err)
		}
	}

	account.accessToken = testJWT(time.Now().Add(time.Hour))
	httpmock.RegisterResponder(http.MethodGet, "https://"+account.Host+"/api/v1/spa/vehicles",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream broken"))
	_, err := account.Vehicles(context.Background())
	var httpErr *HttpError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadGateway {
		t.Errorf("expected HttpError 502, got %v", err)
	}
}

func TestSendAPIRequiresLogin(t *testing.T) {
	account := testAccount(t)
	if _, err := account.Vehicles(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestVehicles(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)
	account.accessToken = testJWT(time.Now().Add(time.Hour))

	httpmock.RegisterResponder(http.MethodGet, "https://"+account.Host+"/api/v1/spa/vehicles",
		func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("Authorization") != "Bearer "+account.accessToken {
				t.Errorf("missing bearer token")
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"retCode": "S",
				"resCode": "0000",
				"resMsg": map[string]interface{}{
					"vehicles": []map[string]string{
						{"vehicleId": "veh-1", "vin": "KMH0TEST00VIN0001", "nickname": "Ioniq", "vehicleName": "IONIQ 5", "type": "EV"},
					},
				},
				"msgId": "msg-1",
			})
		})

	vehicles, err := account.Vehicles(context.Background())
	if err != nil {
		t.Fatalf("Vehicles: %s", err)
	}
	if len(vehicles) != 1 || vehicles[0].VIN != "KMH0TEST00VIN0001" || vehicles[0].Nickname != "Ioniq" {
		t.Errorf("unexpected listing: %+v", vehicles)
	}
}

func TestInvalidSessionTriggersRelogin(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)
	account.accessToken = testJWT(time.Now().Add(time.Hour))
	account.tokenExpiry = time.Now().Add(time.Hour)

	httpmock.RegisterResponder(http.MethodGet, "https://"+account.Host+"/api/v1/spa/vehicles",
		httpmock.NewStringResponder(http.StatusUnauthorized, ""))
	if _, err := account.Vehicles(context.Background()); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	// The rejection must override the locally unexpired token and force a new login.
	httpmock.RegisterResponder(http.MethodPost, "https://"+account.Host+"/api/v1/user/signin",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, tokenReply(time.Now().Add(2*time.Hour))))
	if err := account.CheckAndRefreshToken(context.Background()); err != nil {
		t.Fatalf("CheckAndRefreshToken: %s", err)
	}
	info := httpmock.GetCallCountInfo()
	if info["POST https://"+account.Host+"/api/v1/user/signin"] != 1 {
		t.Errorf("expected a re-login after the session was rejected")
	}
	if account.accessToken == "" {
		t.Errorf("access token not restored by re-login")
	}
}

func TestInvalidSessionResCodeTriggersRelogin(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	account := testAccount(t)
	account.accessToken = testJWT(time.Now().Add(time.Hour))
	account.tokenExpiry = time.Now().Add(time.Hour)
	account.refreshToken = "refresh-0"

	// The backend reports session expiry inside an HTTP 200 body as resCode 4002.
	httpmock.RegisterResponder(http.MethodGet, "https://"+account.Host+"/api/v1/spa/vehicles",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]interface{}{
			"retCode": "F",
			"resCode": "4002",
			"resMsg":  "Invalid session",
			"msgId":   "msg-9",
		}))
	if _, err := account.Vehicles(context.Background()); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	httpmock.RegisterResponder(http.MethodPost, "https://"+account.Host+"/api/v1/user/oauth2/token",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, tokenReply(time.Now().Add(2*time.Hour))))
	if err := account.CheckAndRefreshToken(context.Background()); err != nil {
		t.Fatalf("CheckAndRefreshToken: %s", err)
	}
	info := httpmock.GetCallCountInfo()
	if info["POST https://"+account.Host+"/api/v1/user/oauth2/token"] != 1 {
		t.Errorf("expected a token refresh after the session was rejected")
	}
}

func TestTokenExpiryFallback(t *testing.T) {
	expiry := tokenExpiryTime("not-a-jwt", 600)
	until := time.Until(expiry)
	if until < 9*time.Minute || until > 11*time.Minute {
		t.Errorf("expected expires_in fallback of ~10m, got %s", until)
	}
}
