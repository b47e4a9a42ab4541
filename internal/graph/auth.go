package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"procreport/internal/logging"
)

// ErrLoginRequired means no usable token is cached.
var ErrLoginRequired = errors.New("graph: not signed in; run `procreport login`")

// DefaultAuthority is the Microsoft identity platform host.
const DefaultAuthority = "https://login.microsoftonline.com"

// DefaultScopes cover the drive and mail calls. offline_access yields a
// refresh token so later runs stay unattended.
var DefaultScopes = []string{"Files.Read", "Mail.Send", "User.Read", "offline_access"}

// AuthConfig identifies the public client application and the token cache.
type AuthConfig struct {
	TenantID  string
	ClientID  string
	Scopes    []string
	CachePath string
	// Authority overrides DefaultAuthority, mainly for tests.
	Authority string
}

func (c AuthConfig) oauth2Config() *oauth2.Config {
	authority := c.Authority
	if authority == "" {
		authority = DefaultAuthority
	}
	tenant := c.TenantID
	if tenant == "" {
		tenant = "common"
	}
	base := strings.TrimSuffix(authority, "/") + "/" + tenant + "/oauth2/v2.0"
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &oauth2.Config{
		ClientID: c.ClientID,
		Scopes:   scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:       base + "/authorize",
			TokenURL:      base + "/token",
			DeviceAuthURL: base + "/devicecode",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

func (c AuthConfig) validate() error {
	if c.ClientID == "" {
		return errors.New("graph auth: client id is required")
	}
	if c.CachePath == "" {
		return errors.New("graph auth: token cache path is required")
	}
	return nil
}

// DeviceLogin runs the device-code flow, printing the sign-in instructions to
// prompt, and stores the resulting token in the cache.
func DeviceLogin(ctx context.Context, cfg AuthConfig, prompt io.Writer) (*oauth2.Token, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	oc := cfg.oauth2Config()
	da, err := oc.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	fmt.Fprintf(prompt, "To sign in, open %s and enter the code %s\n", da.VerificationURI, da.UserCode)

	tok, err := oc.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("device token: %w", err)
	}
	if err := saveToken(cfg.CachePath, tok); err != nil {
		return nil, err
	}
	logging.New("graph").Info("signed in", "cache", cfg.CachePath)
	return tok, nil
}

// TokenSource returns an auto-refreshing source seeded from the cache.
// Refreshed tokens are written back so the refresh token stays current.
func TokenSource(ctx context.Context, cfg AuthConfig) (oauth2.TokenSource, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tok, err := loadToken(cfg.CachePath)
	if err != nil {
		return nil, err
	}
	ps := &persistingSource{
		base: cfg.oauth2Config().TokenSource(ctx, tok),
		path: cfg.CachePath,
		last: tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, ps), nil
}

type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			logging.New("graph").Warn("token cache not updated", "path", s.path, "error", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrLoginRequired
	}
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token cache %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrLoginRequired
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}
