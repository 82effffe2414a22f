package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// StateCookie holds the OAuth state between the redirect and the callback.
	StateCookie = "eb_oauth_state"
	userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Google performs the OAuth2 authorization code flow against Google.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogle returns nil when no client id is configured.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	if clientID == "" {
		return nil
	}
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
	}
}

// NewState returns a random value for the state parameter.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is where the browser is sent to consent.
func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades the callback code for a token and reads the account's email and name.
func (g *Google) Exchange(ctx context.Context, code string) (string, string, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange code: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Get(g.userInfoURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return "", "", ErrNoEmail
	}
	return info.Email, info.Name, nil
}
