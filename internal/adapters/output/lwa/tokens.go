package lwa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"alexa-smarthome-bridge/internal/ports"
)

// Endpoint is the Login with Amazon token endpoint. Client credentials go
// in the form body.
var Endpoint = oauth2.Endpoint{
	TokenURL:  "https://api.amazon.com/auth/o2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type Options struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// TokenManager implements ports.TokenProvider on top of an oauth2 config
// and a TokenStore.
type TokenManager struct {
	cfg        *oauth2.Config
	store      TokenStore
	httpClient *http.Client
	log        *slog.Logger
	mu         sync.Mutex
}

func NewTokenManager(opts Options, store TokenStore, log *slog.Logger) *TokenManager {
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	endpoint := Endpoint
	if opts.TokenURL != "" {
		endpoint.TokenURL = opts.TokenURL
	}
	return &TokenManager{
		cfg: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     endpoint,
		},
		store:      store,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log.With("component", "lwa"),
	}
}

func (m *TokenManager) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// Exchange redeems an AcceptGrant code and stores the resulting pair.
func (m *TokenManager) Exchange(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("empty grant code")
	}
	tok, err := m.cfg.Exchange(m.context(ctx), code)
	if err != nil {
		return fmt.Errorf("exchange grant code: %w", err)
	}
	if tok.RefreshToken == "" {
		return errors.New("exchange grant code: no refresh token returned")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	m.log.Info("grant accepted, refresh token stored")
	return nil
}

// AccessToken returns the stored access token, refreshing it first when it
// has expired.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	tok, err := m.store.Load(ctx)
	m.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if tok == nil {
		return "", fmt.Errorf("%w: no grant accepted yet", ports.ErrNotConfigured)
	}
	if tok.Valid() {
		return tok.AccessToken, nil
	}
	return m.Refresh(ctx)
}

// Refresh forces a refresh-token grant regardless of the stored expiry.
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if tok == nil || tok.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token", ports.ErrNotConfigured)
	}
	src := m.cfg.TokenSource(m.context(ctx), &oauth2.Token{RefreshToken: tok.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	if err := m.store.Save(ctx, fresh); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	m.log.Debug("access token refreshed", "expiry", fresh.Expiry)
	return fresh.AccessToken, nil
}
