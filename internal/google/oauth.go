package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// ErrInvalidCredential marks an unusable or expired OAuth credential.
// Callers treat this class of failure as fatal for the run.
var ErrInvalidCredential = errors.New("invalid or expired Google credential")

// Scopes required for mailbox access. The job only ever reads.
var Scopes = []string{
	gmail.GmailReadonlyScope,
}

// authorizedUser mirrors the JSON document produced by Google's
// authorized-user flow (the decoded GMAIL_TOKEN payload).
type authorizedUser struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ParseAuthorizedUser parses an authorized-user JSON document into an
// OAuth2 config and token pair.
func ParseAuthorizedUser(data []byte) (*oauth2.Config, *oauth2.Token, error) {
	var u authorizedUser
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credential JSON: %w", err)
	}
	if u.Token == "" && u.RefreshToken == "" {
		return nil, nil, fmt.Errorf("credential JSON has neither token nor refresh_token: %w", ErrInvalidCredential)
	}

	conf := &oauth2.Config{
		ClientID:     u.ClientID,
		ClientSecret: u.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       Scopes,
	}
	if u.TokenURI != "" {
		conf.Endpoint.TokenURL = u.TokenURI
	}

	// Expiry in the past forces a refresh on first use when a refresh
	// token is available, so a stale access token is never sent.
	token := &oauth2.Token{
		AccessToken:  u.Token,
		TokenType:    "Bearer",
		RefreshToken: u.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	if u.RefreshToken == "" {
		// Without a refresh token the access token is all we have.
		token.Expiry = time.Time{}
	}

	return conf, token, nil
}

// TokenSource builds a self-refreshing token source from the decoded
// credential JSON and validates it once so credential problems surface
// before any mailbox call.
func TokenSource(ctx context.Context, credentialJSON []byte) (oauth2.TokenSource, error) {
	conf, token, err := ParseAuthorizedUser(credentialJSON)
	if err != nil {
		return nil, err
	}

	ts := conf.TokenSource(ctx, token)
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	return oauth2.ReuseTokenSource(nil, ts), nil
}

// HTTPClient returns an HTTP client authenticated with the credential.
func HTTPClient(ctx context.Context, credentialJSON []byte) (*http.Client, error) {
	ts, err := TokenSource(ctx, credentialJSON)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}
