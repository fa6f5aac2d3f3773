package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultIdentityBaseURL = "https://identitytoolkit.googleapis.com/v1"

// IdentityClient talks to the Identity Toolkit REST API. The Admin SDK has no
// password sign-in, so login and registration go through these endpoints with
// the web API key, the same way the original client authenticated.
type IdentityClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewIdentityClient(apiKey string) *IdentityClient {
	return &IdentityClient{
		apiKey:  apiKey,
		baseURL: defaultIdentityBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Session is the authenticated session contract consumed by callers:
// uid, display name, email, and the tokens backing the session.
type Session struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type identityRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type identityResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type identityErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword exchanges email/password for a session. Provider
// rejections come back as *ProviderError.
func (ic *IdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return ic.call(ctx, "accounts:signInWithPassword", email, password, genericLoginMessage)
}

// SignUp registers a new email/password account.
func (ic *IdentityClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return ic.call(ctx, "accounts:signUp", email, password, genericRegisterMessage)
}

func (ic *IdentityClient) call(ctx context.Context, endpoint, email, password, fallback string) (*Session, error) {
	payload, err := json.Marshal(identityRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal identity request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", ic.baseURL, endpoint, ic.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp identityErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
			return nil, &ProviderError{Code: fmt.Sprintf("HTTP_%d", resp.StatusCode), Message: fallback}
		}
		return nil, mapProviderCode(errResp.Error.Message, fallback)
	}

	var ok identityResponse
	if err := json.Unmarshal(body, &ok); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}

	return &Session{
		UID:          ok.LocalID,
		Email:        ok.Email,
		DisplayName:  ok.DisplayName,
		IDToken:      ok.IDToken,
		RefreshToken: ok.RefreshToken,
		ExpiresIn:    ok.ExpiresIn,
	}, nil
}
