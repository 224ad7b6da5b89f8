package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/profile"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

type loginResponse struct {
	Token   string          `json:"token"`
	Profile profile.Profile `json:"profile"`
}

type testUser struct {
	email    string
	password string
}

func newTestUser() testUser {
	return testUser{
		email:    gofakeit.Email(),
		password: gofakeit.Password(true, true, true, false, false, 14),
	}
}

func doJSON(ctx context.Context, t *testing.T, client *http.Client, method, path, token string, body any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBytes, v), string(respBytes))
}

func doRegister(ctx context.Context, t *testing.T, client *http.Client, user testUser) {
	t.Helper()
	resp := doJSON(ctx, t, client, "POST", "/profile/register", "", profile.RegisterParams{
		FullName:     gofakeit.Name(),
		Email:        user.email,
		Password:     user.password,
		Gender:       "Male",
		Height:       "5'11\"",
		Weight:       "180",
		Age:          34,
		FitnessLevel: "Intermediate",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func doLogin(ctx context.Context, t *testing.T, client *http.Client, user testUser) loginResponse {
	t.Helper()
	resp := doJSON(ctx, t, client, "POST", "/a/login", "", map[string]string{
		"email":    user.email,
		"password": user.password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("login %s", user.email))

	var loginResp loginResponse
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	return loginResp
}

// getJSON is safe to call outside the test goroutine, e.g. from
// require.Eventually conditions.
func getJSON(ctx context.Context, client *http.Client, path, token string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(auth.TokenHeader, token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(v)
}
