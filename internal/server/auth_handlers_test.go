package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"social/internal/config"
	"social/internal/mailer"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpNow_SetsSessionCookie(t *testing.T) {
	t.Parallel()
	env := setup(t)

	res := env.do(t, http.MethodPost, env.api("/auth/sign-up-now"), "", fiber.Map{
		"name":          "Ada Lovelace",
		"email":         "Ada@Example.com",
		"password":      testPassword,
		"passwordAgain": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	body := res.JSON(t)
	assert.Equal(t, "pass", body["status"])
	assert.Equal(t, "Signed up.", body["message"])
	assert.NotEmpty(t, body["userId"])

	cookie := tokenCookie(res.Cookies)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/social/api/v1", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	me := env.do(t, http.MethodGet, env.api("/users/"+body["userId"].(string)), cookie.Value, nil)
	require.Equal(t, http.StatusOK, me.Status)
	user := me.JSON(t)["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestSignUp_ValidationAndDuplicates(t *testing.T) {
	t.Parallel()
	env := setup(t)
	env.signUp(t, "Ada", "ada@example.com")

	tests := []struct {
		name    string
		body    fiber.Map
		status  int
		errName string
		message string
	}{
		{
			name:    "missing key",
			body:    fiber.Map{"name": "Bob", "email": "bob@example.com", "password": testPassword},
			status:  http.StatusBadRequest,
			errName: "FieldError",
			message: "Request object is missing 'passwordAgain' key!",
		},
		{
			name:    "passwords differ",
			body:    fiber.Map{"name": "Bob", "email": "bob@example.com", "password": testPassword, "passwordAgain": "other"},
			status:  http.StatusBadRequest,
			errName: "ValueError",
			message: "Passwords don't match!",
		},
		{
			name:    "duplicate email",
			body:    fiber.Map{"name": "Ada", "email": "ADA@example.com", "password": testPassword, "passwordAgain": testPassword},
			status:  http.StatusBadRequest,
			errName: "AuthError",
			message: "There's already an account with that email!",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res := env.do(t, http.MethodPost, env.api("/auth/sign-up-now"), "", tt.body)
			assert.Equal(t, tt.status, res.Status)
			body := res.JSON(t)
			assert.Equal(t, "fail", body["status"])
			errBody := body["error"].(map[string]any)
			assert.Equal(t, tt.errName, errBody["name"])
			assert.Equal(t, tt.message, errBody["message"])
		})
	}
}

func TestSignUp_ActivationFlow(t *testing.T) {
	t.Parallel()
	env := setup(t)
	creds := fiber.Map{"email": "grace@example.com", "password": testPassword}

	res := env.do(t, http.MethodPost, env.api("/auth/sign-up"), "", fiber.Map{
		"name":          "Grace Hopper",
		"email":         "grace@example.com",
		"password":      testPassword,
		"passwordAgain": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	body := res.JSON(t)
	assert.Equal(t, "Email sent.", body["message"])
	assert.Equal(t, "stub", body["info"].(map[string]any)["transport"])

	signIn := env.do(t, http.MethodPost, env.api("/auth/sign-in"), "", creds)
	assert.Equal(t, http.StatusUnauthorized, signIn.Status)
	assert.Equal(t, "Account not activated! Check your email.", signIn.JSON(t)["error"].(map[string]any)["message"])

	email := env.mail.last()
	assert.Equal(t, "grace@example.com", email.To)
	match := activationLink.FindStringSubmatch(email.HTML)
	require.Len(t, match, 2)
	assert.Contains(t, email.HTML, "http://localhost:3000/social/api/v1/auth/activate/")

	activate := env.do(t, http.MethodGet, env.api("/auth/activate/"+match[1]), "", nil)
	assert.Equal(t, http.StatusMovedPermanently, activate.Status)
	assert.Equal(t, "http://localhost:3000", activate.Header.Get("Location"))
	require.NotNil(t, tokenCookie(activate.Cookies))

	signIn = env.do(t, http.MethodPost, env.api("/auth/sign-in"), "", creds)
	require.Equal(t, http.StatusOK, signIn.Status, string(signIn.Body))
	assert.Equal(t, "Signed in.", signIn.JSON(t)["message"])
	assert.NotNil(t, tokenCookie(signIn.Cookies))

	bad := env.do(t, http.MethodGet, env.api("/auth/activate/not-a-token"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, bad.Status)
	assert.Equal(t, "Token invalid or expired!", bad.JSON(t)["error"].(map[string]any)["message"])
}

func TestSignUp_MailFailure(t *testing.T) {
	t.Parallel()
	env := setup(t)
	env.mail.SendFunc = func(context.Context, mailer.Email) (mailer.Receipt, error) {
		return mailer.Receipt{}, errors.New("smtp down")
	}

	res := env.do(t, http.MethodPost, env.api("/auth/sign-up"), "", fiber.Map{
		"name":          "Grace",
		"email":         "grace@example.com",
		"password":      testPassword,
		"passwordAgain": testPassword,
	})
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	errBody := res.JSON(t)["error"].(map[string]any)
	assert.Equal(t, "InternalError", errBody["name"])
	assert.Contains(t, errBody["stack"], "smtp down", "non-production responses carry the error chain")
}

func TestSignIn_Rejections(t *testing.T) {
	t.Parallel()
	env := setup(t)
	env.signUp(t, "Ada", "ada@example.com")

	tests := []struct {
		name   string
		body   fiber.Map
		status int
	}{
		{"unknown email", fiber.Map{"email": "nobody@example.com", "password": testPassword}, http.StatusUnauthorized},
		{"wrong password", fiber.Map{"email": "ada@example.com", "password": "wrong"}, http.StatusUnauthorized},
		{"missing password", fiber.Map{"email": "ada@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res := env.do(t, http.MethodPost, env.api("/auth/sign-in"), "", tt.body)
			assert.Equal(t, tt.status, res.Status)
			assert.Nil(t, tokenCookie(res.Cookies))
		})
	}
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	env := setup(t)
	userID, token := env.signUp(t, "Ada", "ada@example.com")

	res := env.do(t, http.MethodGet, env.api("/users/"+userID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	errBody := res.JSON(t)["error"].(map[string]any)
	assert.Equal(t, "AuthError", errBody["name"])
	assert.Equal(t, "Unauthorized!", errBody["message"])

	res = env.do(t, http.MethodGet, env.api("/users/"+userID), token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	// The Bearer header is accepted as well.
	req := env.api("/users/" + userID)
	r := env.doWithHeader(t, http.MethodGet, req, fiber.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusOK, r.Status)
}

func TestSignOut_RevokesToken(t *testing.T) {
	t.Parallel()
	env := setup(t)
	userID, token := env.signUp(t, "Ada", "ada@example.com")

	res := env.do(t, http.MethodDelete, env.api("/auth/sign-out"), token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Signed out.", res.JSON(t)["message"])
	cleared := tokenCookie(res.Cookies)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	after := env.do(t, http.MethodGet, env.api("/users/"+userID), token, nil)
	assert.Equal(t, http.StatusUnauthorized, after.Status)

	// Signing out without a session still succeeds.
	again := env.do(t, http.MethodDelete, env.api("/auth/sign-out"), "", nil)
	assert.Equal(t, http.StatusOK, again.Status)
}

func TestSignOut_ClearsCookieWhenRedisIsDown(t *testing.T) {
	t.Parallel()
	env := setup(t)
	_, token := env.signUp(t, "Ada", "ada@example.com")

	env.mr.Close()
	res := env.do(t, http.MethodDelete, env.api("/auth/sign-out"), token, nil)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	cleared := tokenCookie(res.Cookies)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestGetFeatureFlags(t *testing.T) {
	t.Parallel()
	env := setup(t, func(cfg *config.Config) {
		cfg.FeatureFlags = "optimistic_saves=on,legacy_feed=off"
	})
	_, token := env.signUp(t, "Ada", "ada@example.com")

	res := env.do(t, http.MethodGet, env.api("/feature-flags"), token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, map[string]any{"optimistic_saves": true, "legacy_feed": false}, res.JSON(t)["flags"])
}
