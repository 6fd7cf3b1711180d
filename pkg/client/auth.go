package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFile holds a saved authentication token.
type TokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Server    string    `json:"server"`
	Username  string    `json:"username"`
}

// IsExpired returns true if the token has expired (with optional margin).
func (t *TokenFile) IsExpired(margin time.Duration) bool {
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// LoginResponse is the response from POST /api/v1/auth/token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// Login authenticates with username/password and returns a token.
func (c *Client) Login(ctx context.Context, username, password, deviceName string) (*LoginResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"username":    username,
		"password":    password,
		"device_name": deviceName,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/auth/token", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(data))
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse login response: %w", err)
	}

	c.SetAuthToken(result.Token)
	return &result, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/api/v1/auth/token", nil)
	if err != nil {
		return err
	}
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	c.SetAuthToken("")
	return nil
}

// InspectToken reads the subject and expiry out of a JWT without
// verifying the signature. Verification is the server's job; the client
// only needs the claims to decide whether the token is worth sending.
func InspectToken(token string) (username string, expiresAt time.Time, err error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return "", time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return claims.Subject, expiresAt, nil
}

// TokenFilePath returns the default path for the token file.
func TokenFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fruitshell", "token.json")
}

// SaveToken saves a token file to the default location.
func SaveToken(tf *TokenFile) error {
	path := TokenFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadToken loads a token file from the default location.
func LoadToken() (*TokenFile, error) {
	data, err := os.ReadFile(TokenFilePath())
	if err != nil {
		return nil, err
	}
	var tf TokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, err
	}
	// Prefer the expiry baked into the token itself when present.
	if _, exp, err := InspectToken(tf.Token); err == nil && !exp.IsZero() {
		tf.ExpiresAt = exp
	}
	return &tf, nil
}

// DeleteToken removes the saved token file.
func DeleteToken() error {
	return os.Remove(TokenFilePath())
}
