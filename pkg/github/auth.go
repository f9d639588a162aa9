package github

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/cache"

	"github.com/golang-jwt/jwt/v5"
)

// Authentication constants.
const (
	maxTokenLength   = 100              // Maximum expected length for GitHub tokens
	minTokenLength   = 40               // Minimum expected length for GitHub tokens
	jwtLifetime      = 10 * time.Minute // GitHub App JWTs expire after 10 minutes max
	jwtRefreshMargin = 1 * time.Minute
	filePermReadOnly = 0o400
	filePermOwnerRW  = 0o600
)

var errNotFound = errors.New("resource not found")

// newPersonalTokenClient creates a client authenticated with a personal
// access token, falling back to the gh CLI when none is provided.
func newPersonalTokenClient(ctx context.Context, cfg Config) (*Client, error) {
	token := cfg.Token
	if token == "" {
		cmd := exec.CommandContext(ctx, "gh", "auth", "token")
		output, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("failed to get GitHub token: %w", err)
		}
		token = strings.TrimSpace(string(output))
	}

	if err := validateToken(token); err != nil {
		return nil, err
	}

	slog.Info("Using personal access token authentication", "component", "auth")
	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		cache:      cache.New(cfg.CacheTTL),
		token:      token,
	}, nil
}

// newAppAuthClient creates a client authenticated as a GitHub App.
// The private key comes from the configured path or, failing that, the
// GITHUB_APP_KEY / GITHUB_APP_KEY_PATH environment variables.
func newAppAuthClient(_ context.Context, cfg Config) (*Client, error) {
	appID := cfg.AppID
	if appID == "" {
		appID = os.Getenv("GITHUB_APP_ID")
	}
	if appID == "" {
		return nil, errors.New("GitHub App ID is required (set --app-id or GITHUB_APP_ID)")
	}

	privateKey, err := resolvePrivateKey(cfg.AppKeyPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient:         &http.Client{Timeout: cfg.HTTPTimeout},
		cache:              cache.New(cfg.CacheTTL),
		installationTokens: make(map[string]string),
		installationExpiry: make(map[string]time.Time),
		installationIDs:    make(map[string]int64),
		appID:              appID,
		privateKey:         privateKey,
		isAppAuth:          true,
	}
	if err := c.refreshJWTIfNeeded(); err != nil {
		return nil, err
	}
	slog.Info("Generated JWT for GitHub App", "component", "auth", "app_id", appID)
	return c, nil
}

// resolvePrivateKey loads the App private key from the given path or the environment.
func resolvePrivateKey(keyPath string) ([]byte, error) {
	if keyPath == "" {
		if content := os.Getenv("GITHUB_APP_KEY"); content != "" {
			return validatePEM([]byte(content))
		}
		keyPath = os.Getenv("GITHUB_APP_KEY_PATH")
	}
	if keyPath == "" {
		return nil, errors.New("no GitHub App private key provided (set --app-key-path, GITHUB_APP_KEY, or GITHUB_APP_KEY_PATH)")
	}

	cleanPath := filepath.Clean(keyPath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access private key file: %w", err)
	}
	if info.IsDir() {
		return nil, errors.New("private key path must be a file, not a directory")
	}
	if perm := info.Mode().Perm(); perm != filePermOwnerRW && perm != filePermReadOnly {
		return nil, fmt.Errorf("private key file has insecure permissions %04o (must be 0600 or 0400)", perm)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return validatePEM(content)
}

// validatePEM sanity-checks that the bytes look like a PEM private key.
func validatePEM(key []byte) ([]byte, error) {
	s := string(key)
	if !strings.Contains(s, "BEGIN RSA PRIVATE KEY") && !strings.Contains(s, "BEGIN PRIVATE KEY") {
		return nil, errors.New("private key does not appear to be a valid PEM private key")
	}
	return key, nil
}

// refreshJWTIfNeeded regenerates the App JWT when it is near expiry.
func (c *Client) refreshJWTIfNeeded() error {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()

	if !c.isAppAuth {
		return nil
	}
	if c.token != "" && time.Until(c.jwtExpiry) > jwtRefreshMargin {
		return nil
	}

	token, expiry, err := generateJWT(c.appID, c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to generate JWT: %w", err)
	}
	c.token = token
	c.jwtExpiry = expiry
	return nil
}

// generateJWT signs a short-lived RS256 JWT for GitHub App authentication.
func generateJWT(appID string, privateKey []byte) (token string, expiry time.Time, err error) {
	block, _ := pem.Decode(privateKey)
	if block == nil {
		return "", time.Time{}, errors.New("failed to parse PEM block containing the private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format if PKCS1 fails.
		parsed, err8 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err8 != nil {
			return "", time.Time{}, fmt.Errorf("failed to parse private key: %w", err8)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return "", time.Time{}, errors.New("private key is not RSA")
		}
		key = rsaKey
	}

	now := time.Now()
	expiry = now.Add(jwtLifetime)
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": expiry.Unix(),
		"iss": appID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// validateToken validates a GitHub personal access token.
func validateToken(token string) error {
	if token == "" {
		return errors.New("no GitHub token found")
	}
	if len(token) < minTokenLength || len(token) > maxTokenLength {
		return errors.New("invalid token length")
	}
	for _, r := range token {
		validChar := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
		if !validChar {
			return errors.New("token contains invalid characters")
		}
	}
	return nil
}

// authToken picks the token for one request: the App JWT for /app endpoints,
// the org installation token when one applies, or the personal token.
func (c *Client) authToken(ctx context.Context, apiURL string) (string, error) {
	c.tokenMutex.RLock()
	appAuth := c.isAppAuth
	org := c.currentOrg
	token := c.token
	c.tokenMutex.RUnlock()

	if !appAuth {
		return token, nil
	}
	if strings.Contains(apiURL, "/app/") || org == "" {
		return token, nil
	}
	return c.installationToken(ctx, org)
}

// installationToken returns (minting if necessary) the installation token for an org.
func (c *Client) installationToken(ctx context.Context, org string) (string, error) {
	c.tokenMutex.RLock()
	cached, ok := c.installationTokens[org]
	expiry := c.installationExpiry[org]
	c.tokenMutex.RUnlock()
	if ok && time.Until(expiry) > jwtRefreshMargin {
		return cached, nil
	}

	id, err := c.installationID(ctx, org)
	if err != nil {
		return "", err
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	resp, err := c.doRequest(ctx, httpMethodPost, fmt.Sprintf("%s/app/installations/%d/access_tokens", apiBase, id), struct{}{})
	if err != nil {
		return "", fmt.Errorf("failed to create installation token: %w", err)
	}
	defer drainAndCloseBody(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d creating installation token for %s", resp.StatusCode, org)
	}
	if err := jsonDecode(resp.Body, &result); err != nil {
		return "", err
	}

	c.tokenMutex.Lock()
	c.installationTokens[org] = result.Token
	c.installationExpiry[org] = result.ExpiresAt
	c.tokenMutex.Unlock()

	return result.Token, nil
}

// installationID resolves the App installation ID for an org, listing all
// installations on first use.
func (c *Client) installationID(ctx context.Context, org string) (int64, error) {
	c.tokenMutex.RLock()
	id, ok := c.installationIDs[org]
	c.tokenMutex.RUnlock()
	if ok {
		return id, nil
	}

	if _, err := c.ListAppInstallations(ctx); err != nil {
		return 0, err
	}

	c.tokenMutex.RLock()
	id, ok = c.installationIDs[org]
	c.tokenMutex.RUnlock()
	if !ok {
		return 0, fmt.Errorf("app is not installed on %s", org)
	}
	return id, nil
}

// ListAppInstallations returns the account logins where the App is installed.
func (c *Client) ListAppInstallations(ctx context.Context) ([]string, error) {
	var installations []struct {
		Account struct {
			Login string `json:"login"`
		} `json:"account"`
		ID int64 `json:"id"`
	}
	if err := c.getJSON(ctx, apiBase+"/app/installations?per_page=100", &installations); err != nil {
		return nil, fmt.Errorf("failed to list app installations: %w", err)
	}

	c.tokenMutex.Lock()
	orgs := make([]string, 0, len(installations))
	for _, inst := range installations {
		if inst.Account.Login == "" {
			continue
		}
		c.installationIDs[inst.Account.Login] = inst.ID
		orgs = append(orgs, inst.Account.Login)
	}
	c.tokenMutex.Unlock()

	return orgs, nil
}
