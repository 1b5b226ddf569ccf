//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type userInfo struct {
	ID           string
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

func decodeUser(t *testing.T, resp *http.Response) userInfo {
	t.Helper()

	var out struct {
		UserID       string `json:"user_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode user response failed: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatalf("empty access token in response")
	}
	return userInfo{
		ID:           out.UserID,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func createGuest(t *testing.T, displayName string) userInfo {
	t.Helper()

	payload := map[string]string{
		"display_name": fmt.Sprintf("%s-%d", displayName, time.Now().UnixNano()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal guest payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/guest", baseURL()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create guest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected guest response status: %d", resp.StatusCode)
	}
	return decodeUser(t, resp)
}

func createRegisteredUser(t *testing.T, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": fmt.Sprintf("player-%d", time.Now().UnixNano()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/register", baseURL()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register response status: %d", resp.StatusCode)
	}
	return decodeUser(t, resp)
}

func loginUser(t *testing.T, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/login", baseURL()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login response status: %d", resp.StatusCode)
	}
	return decodeUser(t, resp)
}

func makeAuthenticatedRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
}
