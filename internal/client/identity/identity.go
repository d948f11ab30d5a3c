// Package identity signs users up and in against an identity provider that
// speaks the Firebase Auth REST protocol.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	signUpPath = "/v1/accounts:signUp"
	signInPath = "/v1/accounts:signInWithPassword"

	maxResponse = 64 << 10
)

// Error is a failure reported by the provider, such as EMAIL_EXISTS.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider error %d: %s", e.Code, e.Message)
}

// Credentials is the outcome of a successful sign-up or sign-in.
type Credentials struct {
	SubjectID string
	Token     string
	Email     string
	ExpiresIn time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a client for the provider at baseURL, for example
// https://identitytoolkit.googleapis.com.
func New(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	LocalID   string `json:"localId"`
	Email     string `json:"email"`
	IDToken   string `json:"idToken"`
	ExpiresIn string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	return c.call(ctx, signUpPath, email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	return c.call(ctx, signInPath, email, password)
}

func (c *Client) call(ctx context.Context, path, email, password string) (*Credentials, error) {
	body, err := json.Marshal(credentialsRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("identity response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		var er errorResponse
		if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
			return nil, &Error{Code: er.Error.Code, Message: er.Error.Message}
		}
		return nil, &Error{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("identity response: %w", err)
	}
	if tr.LocalID == "" || tr.IDToken == "" {
		return nil, fmt.Errorf("identity response: missing localId or idToken")
	}

	creds := &Credentials{SubjectID: tr.LocalID, Token: tr.IDToken, Email: tr.Email}
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil {
		creds.ExpiresIn = time.Duration(secs) * time.Second
	}
	return creds, nil
}
