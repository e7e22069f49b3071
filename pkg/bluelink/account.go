package bluelink

import (
	"bytes"
	"context"
	_ "embed" // Used to embed version for use with user agent
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bluelink-community/vehicle-connect/internal/log"
)

// MaxResponseLength bounds how much of an upstream response body the client will read.
const MaxResponseLength = 1_000_000

// tokenRefreshMargin is how long before expiry the access token is refreshed.
const tokenRefreshMargin = time.Minute

var (
	//go:embed version.txt
	libraryVersion string
)

func buildUserAgent(app string) string {
	library := strings.TrimSpace("bluelink-sdk/" + libraryVersion)
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return library
	}
	path := strings.Split(build.Path, "/")
	if len(path) == 0 {
		return library
	}

	if app == "" {
		app = path[len(path)-1]
		if build.Main.Version != "(devel)" && build.Main.Version != "" {
			app = fmt.Sprintf("%s/%s", app, build.Main.Version)
		}
	}

	return fmt.Sprintf("%s %s", app, library)
}

// Account holds an authenticated Bluelink session.
//
// Methods are safe for concurrent use; token refreshes are serialized internally.
type Account struct {
	// The default UserAgent is derived from build info, but can be overridden before the
	// first request.
	UserAgent string
	Host      string

	username string
	password string
	pin      string
	deviceID string
	client   http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
}

// New returns an Account for the given credentials. No network traffic is generated
// until Login is called.
func New(username, password, pin string, region Region, brand Brand) (*Account, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	host, err := APIHost(region, brand)
	if err != nil {
		return nil, err
	}
	return &Account{
		UserAgent: buildUserAgent(""),
		Host:      host,
		username:  username,
		password:  password,
		pin:       pin,
		deviceID:  uuid.NewString(),
	}, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenExpiry extracts the expiration time from the access token's exp claim. The token
// is issued by the backend, so its signature is not verified here; the expiry is only
// used to schedule refreshes.
func tokenExpiryTime(accessToken string, expiresIn int) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}

// Login authenticates with the backend and stores the resulting token pair.
func (a *Account) Login(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.login(ctx)
}

// login performs the signin request. Callers must hold a.mu.
func (a *Account) login(ctx context.Context) error {
	credentials := map[string]string{
		"email":    a.username,
		"password": a.password,
		"pin":      a.pin,
	}
	body, err := a.send(ctx, http.MethodPost, "api/v1/user/signin", credentials, false)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return a.storeTokens(body)
}

// refresh exchanges the refresh token for a new token pair. Callers must hold a.mu.
func (a *Account) refresh(ctx context.Context) error {
	grant := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": a.refreshToken,
	}
	body, err := a.send(ctx, http.MethodPost, "api/v1/user/oauth2/token", grant, false)
	if err != nil {
		return err
	}
	return a.storeTokens(body)
}

func (a *Account) storeTokens(body []byte) error {
	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return fmt.Errorf("unable to parse token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}
	a.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		a.refreshToken = tokens.RefreshToken
	}
	a.tokenExpiry = tokenExpiryTime(tokens.AccessToken, tokens.ExpiresIn)
	log.Debug("Stored access token valid until %s", a.tokenExpiry.Format(time.RFC3339))
	return nil
}

// invalidateSession drops the stored access token. The backend can reject a token before
// its exp claim (password change, concurrent logins), so the local expiry alone must not
// keep CheckAndRefreshToken from re-authenticating.
func (a *Account) invalidateSession() {
	a.mu.Lock()
	a.accessToken = ""
	a.tokenExpiry = time.Time{}
	a.mu.Unlock()
}

// CheckAndRefreshToken renews the session if the access token is missing or close to
// expiry. A failed refresh falls back to a full login.
func (a *Account) CheckAndRefreshToken(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Until(a.tokenExpiry) > tokenRefreshMargin {
		return nil
	}
	if a.refreshToken != "" {
		if err := a.refresh(ctx); err == nil {
			return nil
		} else {
			log.Warning("Token refresh failed, attempting full login: %s", err)
		}
	}
	return a.login(ctx)
}

// apiResponse is the skeleton shared by all backend replies.
type apiResponse struct {
	RetCode string          `json:"retCode"`
	ResCode string          `json:"resCode"`
	ResMsg  json.RawMessage `json:"resMsg"`
	MsgID   string          `json:"msgId"`
}

// send issues a request and returns the raw response body. Requests with authed set are
// sent with the Authorization header; login/refresh requests are not.
func (a *Account) send(ctx context.Context, method, endpoint string, payload interface{}, authed bool) ([]byte, error) {
	url := fmt.Sprintf("https://%s/%s", a.Host, endpoint)

	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error constructing request to %s: %w", endpoint, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", a.UserAgent)
	request.Header.Set("Ccsp-Device-Id", a.deviceID)
	request.Header.Set("Transaction-Id", uuid.NewString())
	if authed {
		request.Header.Set("Authorization", "Bearer "+a.accessToken)
	}

	log.Debug("Requesting %s %s...", method, url)
	response, err := a.client.Do(request)
	if err != nil {
		return nil, &CommandError{Err: err, PossibleSuccess: method == http.MethodPost, PossibleTemporary: true}
	}
	defer response.Body.Close()

	limited := io.LimitedReader{R: response.Body, N: MaxResponseLength + 1}
	body, err := io.ReadAll(&limited)
	if err != nil {
		return nil, &CommandError{Err: err, PossibleSuccess: true, PossibleTemporary: false}
	}
	if len(body) == MaxResponseLength+1 {
		return nil, NewError("response exceeds maximum length", true, true)
	}
	log.Debug("Server returned %d: %s", response.StatusCode, http.StatusText(response.StatusCode))

	switch response.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidSession
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	return nil, &HttpError{Code: response.StatusCode, Message: strings.TrimSpace(string(body))}
}

// sendAPI issues an authenticated request and unwraps the backend's response skeleton,
// translating application-level result codes into errors.
func (a *Account) sendAPI(ctx context.Context, method, endpoint string, payload interface{}) (*apiResponse, error) {
	a.mu.Lock()
	token := a.accessToken
	a.mu.Unlock()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	body, err := a.send(ctx, method, endpoint, payload, true)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			a.invalidateSession()
		}
		return nil, err
	}
	var reply apiResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &CommandError{Err: fmt.Errorf("unable to parse server response: %w", err), PossibleSuccess: true, PossibleTemporary: false}
	}
	if err := errorFromResCode(reply.ResCode, string(reply.ResMsg)); err != nil {
		if errors.Is(err, ErrInvalidSession) {
			a.invalidateSession()
		}
		return nil, err
	}
	return &reply, nil
}

// Vehicles enumerates the vehicles registered to the account.
func (a *Account) Vehicles(ctx context.Context) ([]VehicleDescription, error) {
	reply, err := a.sendAPI(ctx, http.MethodGet, "api/v1/spa/vehicles", nil)
	if err != nil {
		return nil, err
	}
	var listing struct {
		Vehicles []VehicleDescription `json:"vehicles"`
	}
	if err := json.Unmarshal(reply.ResMsg, &listing); err != nil {
		return nil, fmt.Errorf("unable to parse vehicle listing: %w", err)
	}
	return listing.Vehicles, nil
}
