package test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := newTestUser()
	doRegister(ctx, t, s.httpClient, user)

	cases := map[string]struct {
		email              string
		password           string
		expectedStatusCode int
	}{
		"good creds": {
			email:              user.email,
			password:           user.password,
			expectedStatusCode: http.StatusOK,
		},
		"bad password": {
			email:              user.email,
			password:           "bad-password",
			expectedStatusCode: http.StatusUnauthorized,
		},
		"unknown user": {
			email:              "nobody@example.com",
			password:           user.password,
			expectedStatusCode: http.StatusUnauthorized,
		},
		"missing password": {
			email:              user.email,
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := doJSON(ctx, t, s.httpClient, "POST", "/a/login", "", map[string]string{
				"email":    tc.email,
				"password": tc.password,
			})
			defer resp.Body.Close()
			assert.Equal(t, tc.expectedStatusCode, resp.StatusCode)
		})
	}
}

func (s *IntegrationTestSuite) TestLoginThenLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := newTestUser()
	doRegister(ctx, t, s.httpClient, user)
	login := doLogin(ctx, t, s.httpClient, user)
	assert.Equal(t, user.email, login.Profile.Email)
	assert.Positive(t, login.Profile.BMR)

	resp := doJSON(ctx, t, s.httpClient, "GET", "/profile/me", login.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(ctx, t, s.httpClient, "POST", "/a/logout", login.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(ctx, t, s.httpClient, "GET", "/profile/me", login.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestRegister_DuplicateEmail() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := newTestUser()
	doRegister(ctx, t, s.httpClient, user)

	resp := doJSON(ctx, t, s.httpClient, "POST", "/profile/register", "", map[string]any{
		"fullName": "Someone Else",
		"email":    user.email,
		"password": "another-password",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
