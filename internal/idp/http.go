package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider talks to a hosted identity provider's REST API. The service
// key authorizes the admin endpoints; end-user tokens authorize /user.
type HTTPProvider struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewHTTPProvider creates a client for the hosted identity provider.
func NewHTTPProvider(baseURL, serviceKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type wireUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	BannedAt  *time.Time `json:"banned_until"`
	Metadata  struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user_metadata"`
}

func (w *wireUser) toUser() *User {
	return &User{
		ID:          w.ID,
		Email:       w.Email,
		FirstName:   w.Metadata.FirstName,
		LastName:    w.Metadata.LastName,
		BannedUntil: w.BannedAt,
	}
}

// SignIn exchanges credentials for an access token via the password grant.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	payload := map[string]string{"email": email, "password": password}

	var out struct {
		AccessToken string   `json:"access_token"`
		User        wireUser `json:"user"`
	}
	status, err := p.call(ctx, http.MethodPost, "/token?grant_type=password", p.serviceKey, payload, &out)
	if err != nil {
		return nil, "", err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, "", ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return nil, "", fmt.Errorf("idp: sign in returned status %d", status)
	}

	return out.User.toUser(), out.AccessToken, nil
}

// VerifyToken resolves an access token to its user.
func (p *HTTPProvider) VerifyToken(ctx context.Context, token string) (*User, error) {
	var out wireUser
	status, err := p.call(ctx, http.MethodGet, "/user", token, nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrTokenInvalid
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("idp: verify token returned status %d", status)
	}

	if isBanned(out.BannedAt) {
		return nil, ErrUserBanned
	}
	return out.toUser(), nil
}

// CreateUser provisions a new identity via the admin API. The organization id
// travels as metadata so the store's provisioning hook can create the base
// membership and profile.
func (p *HTTPProvider) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	payload := map[string]interface{}{
		"email":         in.Email,
		"password":      in.Password,
		"email_confirm": true,
		"user_metadata": map[string]interface{}{
			"first_name":      in.FirstName,
			"last_name":       in.LastName,
			"organization_id": in.OrganizationID,
		},
	}

	var out wireUser
	status, err := p.call(ctx, http.MethodPost, "/admin/users", p.serviceKey, payload, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		return nil, ErrEmailTaken
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("idp: create user returned status %d", status)
	}

	return out.toUser(), nil
}

// UpdateUser applies identity-level changes via the admin API.
func (p *HTTPProvider) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*User, error) {
	payload := map[string]interface{}{}
	meta := map[string]interface{}{}

	if in.Email != nil {
		payload["email"] = *in.Email
	}
	if in.FirstName != nil {
		meta["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		meta["last_name"] = *in.LastName
	}
	if len(meta) > 0 {
		payload["user_metadata"] = meta
	}
	if in.Banned != nil {
		if *in.Banned {
			payload["ban_duration"] = "87600h"
		} else {
			payload["ban_duration"] = "none"
		}
	}

	var out wireUser
	status, err := p.call(ctx, http.MethodPut, "/admin/users/"+id, p.serviceKey, payload, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("idp: update user returned status %d", status)
	}

	return out.toUser(), nil
}

func (p *HTTPProvider) call(ctx context.Context, method, path, token string, payload, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("idp: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("idp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("idp: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("idp: read response: %w", err)
	}

	if out != nil && resp.StatusCode < 300 && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("idp: decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
