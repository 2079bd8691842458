// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/bioauth/bioauth/internal/auth"
	authpg "github.com/bioauth/bioauth/internal/auth/postgres"
	"github.com/bioauth/bioauth/internal/httpapi"
	"github.com/bioauth/bioauth/internal/ratelimit"
)

const secret = "integration-secret-0123456789"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stack is one running API over the shared database.
type stack struct {
	server   *httptest.Server
	sessions *auth.SessionIssuer
	clock    *clock
}

func newStack(rateLimit func(http.Handler) http.Handler) *stack {
	c := &clock{now: time.Now().UTC().Truncate(time.Second)}
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	Expect(err).NotTo(HaveOccurred())
	hashes := auth.NewHashLimiter(hasher, 4, nil)
	sessions, err := auth.NewSessionIssuer(secret, 0, auth.WithSessionClock(c.Now))
	Expect(err).NotTo(HaveOccurred())

	logger := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, err := auth.NewService(auth.ServiceConfig{
		Store:      authpg.NewCredentialRepository(pool),
		Hashes:     hashes,
		Biometrics: auth.NewBiometricTokenIssuer(hashes, secret),
		Refresh:    auth.NewRefreshTokenManager(hashes, secret, 0),
		Sessions:   sessions,
		Logger:     logger,
		Now:        c.Now,
	})
	Expect(err).NotTo(HaveOccurred())

	srv := httptest.NewServer(httpapi.NewRouter(httpapi.Options{
		Service:   svc,
		Logger:    logger,
		RateLimit: rateLimit,
	}))
	DeferCleanup(srv.Close)
	return &stack{server: srv, sessions: sessions, clock: c}
}

type reply struct {
	status int
	header http.Header
	body   map[string]any
}

func (s *stack) call(method, path string, body map[string]string, headers map[string]string) reply {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	out := reply{status: resp.StatusCode, header: resp.Header}
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		Expect(json.Unmarshal(raw, &out.body)).To(Succeed())
	}
	return out
}

func truncateUsers() {
	_, err := pool.Exec(context.Background(), `TRUNCATE users RESTART IDENTITY`)
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("Authentication flows", Ordered, func() {
	var (
		api          *stack
		biometric    string
		refreshToken string
		accessToken  string
	)

	BeforeAll(func() {
		truncateUsers()
		api = newStack(nil)
	})

	It("registers a user and returns a one-time biometric token", func() {
		res := api.call(http.MethodPost, "/register", map[string]string{
			"username": "alice",
			"password": "pw1",
			"email":    "a@x.com",
		}, nil)

		Expect(res.status).To(Equal(http.StatusOK))
		Expect(res.body).To(HaveKeyWithValue("username", "alice"))
		Expect(res.body).To(HaveKeyWithValue("email", "a@x.com"))
		Expect(res.body).To(HaveKey("id"))
		Expect(res.body).To(HaveKey("createdAt"))
		Expect(res.body).To(HaveKey("updatedAt"))
		Expect(res.body["biometricToken"]).To(BeAssignableToTypeOf(""))
		biometric = res.body["biometricToken"].(string)
		Expect(biometric).NotTo(BeEmpty())
	})

	It("rejects a second registration of the same username", func() {
		res := api.call(http.MethodPost, "/register", map[string]string{
			"username": "alice",
			"password": "other",
			"email":    "b@x.com",
		}, nil)

		Expect(res.status).To(Equal(http.StatusBadRequest))
		Expect(res.body).To(HaveKeyWithValue("message", "Username alice is already taken"))
	})

	It("logs in with a password", func() {
		res := api.call(http.MethodPost, "/login", map[string]string{
			"username": "alice",
			"password": "pw1",
		}, nil)

		Expect(res.status).To(Equal(http.StatusOK))
		accessToken, _ = res.body["token"].(string)
		refreshToken, _ = res.body["refreshToken"].(string)
		Expect(refreshToken).NotTo(BeEmpty())

		id, err := api.sessions.Verify(accessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(id.Username).To(Equal("alice"))
		Expect(id.ID).To(Equal(int64(1)))
	})

	It("rejects a wrong password", func() {
		res := api.call(http.MethodPost, "/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		}, nil)

		Expect(res.status).To(Equal(http.StatusBadRequest))
		Expect(res.body).To(Equal(map[string]any{"message": auth.MsgInvalidCredentials}))
	})

	It("answers an unknown user exactly like a wrong password", func() {
		res := api.call(http.MethodPost, "/login", map[string]string{
			"username": "mallory",
			"password": "pw1",
		}, nil)

		Expect(res.status).To(Equal(http.StatusBadRequest))
		Expect(res.body).To(Equal(map[string]any{"message": auth.MsgInvalidCredentials}))
	})

	It("renews the access token and echoes the refresh token", func() {
		res := api.call(http.MethodPost, "/refreshtoken", map[string]string{
			"username":     "alice",
			"refreshToken": refreshToken,
		}, nil)

		Expect(res.status).To(Equal(http.StatusOK))
		Expect(res.body).To(HaveKeyWithValue("refreshToken", refreshToken))
		Expect(res.body["token"]).NotTo(BeEmpty())
	})

	It("rotates the biometric token for an authenticated user", func() {
		res := api.call(http.MethodPost, "/refreshbiometric", nil, map[string]string{
			httpapi.AccessTokenHeader: accessToken,
		})

		Expect(res.status).To(Equal(http.StatusOK))
		fresh, _ := res.body["biometricToken"].(string)
		Expect(fresh).NotTo(BeEmpty())
		Expect(fresh).NotTo(Equal(biometric))

		stale := api.call(http.MethodPost, "/login", map[string]string{
			"username":  "alice",
			"biometric": biometric,
		}, nil)
		Expect(stale.status).To(Equal(http.StatusBadRequest))

		current := api.call(http.MethodPost, "/login", map[string]string{
			"username":  "alice",
			"biometric": fresh,
		}, nil)
		Expect(current.status).To(Equal(http.StatusOK))
		refreshToken, _ = current.body["refreshToken"].(string)
	})

	It("serves the profile of the token holder", func() {
		res := api.call(http.MethodGet, "/profile", nil, map[string]string{
			httpapi.AccessTokenHeader: accessToken,
		})

		Expect(res.status).To(Equal(http.StatusOK))
		Expect(res.body).To(HaveKeyWithValue("username", "alice"))
		Expect(res.body).To(HaveKeyWithValue("email", "a@x.com"))
		Expect(res.body).NotTo(HaveKey("password"))
	})

	It("refuses a refresh token after four days", func() {
		api.clock.Advance(4 * 24 * time.Hour)

		res := api.call(http.MethodPost, "/refreshtoken", map[string]string{
			"username":     "alice",
			"refreshToken": refreshToken,
		}, nil)

		Expect(res.status).To(Equal(http.StatusForbidden))
		Expect(res.body["message"]).To(ContainSubstring("expired"))
	})
})

var _ = Describe("Rate limiting", func() {
	It("limits clients through the Redis backend", func() {
		truncateUsers()
		mr := miniredis.RunT(GinkgoT())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		limiter, err := ratelimit.NewRedis(client, 2, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		api := newStack(ratelimit.Middleware(limiter, ratelimit.MiddlewareOptions{}))

		Expect(api.call(http.MethodGet, "/", nil, nil).status).To(Equal(http.StatusOK))
		Expect(api.call(http.MethodGet, "/", nil, nil).status).To(Equal(http.StatusOK))

		limited := api.call(http.MethodGet, "/", nil, nil)
		Expect(limited.status).To(Equal(http.StatusTooManyRequests))
		Expect(limited.body).To(HaveKeyWithValue("message", ratelimit.MsgTooManyRequests))
		Expect(limited.header.Get("Retry-After")).NotTo(BeEmpty())
	})
})
