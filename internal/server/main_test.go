package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"social/internal/config"
	"social/internal/database"
	"social/internal/mailer"
	"social/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

const testPassword = "s3cret-pass"

type senderStub struct {
	mu       sync.Mutex
	sent     []mailer.Email
	SendFunc func(ctx context.Context, email mailer.Email) (mailer.Receipt, error)
}

func (s *senderStub) Send(ctx context.Context, email mailer.Email) (mailer.Receipt, error) {
	s.mu.Lock()
	s.sent = append(s.sent, email)
	s.mu.Unlock()
	if s.SendFunc != nil {
		return s.SendFunc(ctx, email)
	}
	return mailer.Receipt{Transport: "stub", Accepted: []string{email.To}}, nil
}

func (s *senderStub) last() mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return mailer.Email{}
	}
	return s.sent[len(s.sent)-1]
}

type testEnv struct {
	cfg  *config.Config
	srv  *Server
	app  *fiber.App
	mr   *miniredis.Miniredis
	mail *senderStub
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppName:             "social",
		APIVersion:          "1",
		Env:                 "test",
		Port:                "0",
		Host:                "http://localhost:3000",
		MongoURI:            config.MemoryURI,
		DBName:              "social-test",
		JWTSecret:           "test-secret-key-12345678901234567890123456789012",
		JWTExpiresIn:        time.Hour,
		ActivationExpiresIn: 168 * time.Hour,
		CookieMaxAge:        3600,
		AllowedOrigins:      "http://localhost:3000",
		IndexDir:            t.TempDir(),
	}
}

func setup(t *testing.T, mutators ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutators {
		m(cfg)
	}

	db, err := database.OpenMemory(context.Background(), cfg.DBName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mail := &senderStub{}
	srv := NewServerWithDeps(cfg, db, rdb, mail)
	return &testEnv{cfg: cfg, srv: srv, app: srv.App(), mr: mr, mail: mail}
}

// api prefixes path with the configured API path.
func (e *testEnv) api(path string) string {
	return e.cfg.APIPath() + path
}

type result struct {
	Status  int
	Body    []byte
	Header  http.Header
	Cookies []*http.Cookie
}

func (r result) JSON(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) result {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{Status: resp.StatusCode, Body: b, Header: resp.Header, Cookies: resp.Cookies()}
}

func tokenCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == TokenCookie {
			return c
		}
	}
	return nil
}

// signUp creates an activated account and returns its id and session token.
func (e *testEnv) signUp(t *testing.T, name, email string) (string, string) {
	t.Helper()
	res := e.do(t, http.MethodPost, e.api("/auth/sign-up-now"), "", fiber.Map{
		"name":          name,
		"email":         email,
		"password":      testPassword,
		"passwordAgain": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	cookie := tokenCookie(res.Cookies)
	require.NotNil(t, cookie)
	return res.JSON(t)["userId"].(string), cookie.Value
}

var activationLink = regexp.MustCompile(`/auth/activate/([A-Za-z0-9_\-.]+)`)

func (e *testEnv) doWithHeader(t *testing.T, method, path, key, value string) result {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(key, value)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{Status: resp.StatusCode, Body: b, Header: resp.Header, Cookies: resp.Cookies()}
}
