package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polkiloo/coursemart/internal/config"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/server/http/handlers"
	"github.com/polkiloo/coursemart/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/coursemart/internal/test"
)

func newTestEngine(t *testing.T, facade testhelpers.CourseMartStub, cfg *config.Config) *gin.Engine {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{RateLimitRPS: 100, RateLimitBurst: 100}
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(facade, cfg, logger)
	gin.SetMode(gin.TestMode)
	return engine
}

func serve(engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	engine := newTestEngine(t, testhelpers.CourseMartStub{}, nil)
	bearer := map[string]string{"Authorization": "Bearer " + testhelpers.SessionToken(7)}
	id := uuid.New().String()

	cases := []struct {
		method  string
		path    string
		body    any
		headers map[string]string
		want    int
	}{
		{http.MethodPost, "/api/user/register", map[string]string{"login": "user", "password": "pass"}, nil, http.StatusOK},
		{http.MethodPost, "/api/user/login", map[string]string{"login": "user", "password": "pass"}, nil, http.StatusOK},
		{http.MethodGet, "/api/courses", nil, nil, http.StatusOK},
		{http.MethodGet, "/api/health", nil, nil, http.StatusOK},
		{http.MethodPost, "/api/enrollment/create", map[string]int{"courseId": 1}, bearer, http.StatusCreated},
		{http.MethodPost, "/api/enrollment/reconcile", map[string]string{"enrollmentId": id}, bearer, http.StatusOK},
		{http.MethodPost, "/api/enrollment/partial-payment", map[string]any{"enrollmentId": id, "amount": 250}, bearer, http.StatusCreated},
		{http.MethodDelete, "/api/enrollment/" + id, nil, bearer, http.StatusOK},
		{http.MethodGet, "/api/enrollment", nil, bearer, http.StatusOK},
		{http.MethodGet, "/api/enrollment/" + id + "/payments", nil, bearer, http.StatusOK},
		{http.MethodDelete, "/api/enrollment/cleanup", nil, nil, http.StatusOK},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := serve(engine, tc.method, tc.path, tc.body, tc.headers)
			if resp.Code != tc.want {
				t.Fatalf("expected status %d, got %d: %s", tc.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestEnrollmentRoutesRequireAuth(t *testing.T) {
	engine := newTestEngine(t, testhelpers.CourseMartStub{}, nil)

	for _, path := range []string{"/api/enrollment/create", "/api/enrollment/verify", "/api/enrollment/reconcile", "/api/enrollment/partial-payment"} {
		if resp := serve(engine, http.MethodPost, path, map[string]string{}, nil); resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, resp.Code)
		}
	}
	if resp := serve(engine, http.MethodDelete, "/api/enrollment/"+uuid.New().String(), nil, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for cancel, got %d", resp.Code)
	}
}

func TestCleanupRouteGuardedByToken(t *testing.T) {
	var calls int
	facade := testhelpers.CourseMartStub{EnrollmentFacadeStub: testhelpers.EnrollmentFacadeStub{
		CleanupFn: func(context.Context) (*model.StaleCleanup, error) {
			calls++
			return &model.StaleCleanup{}, nil
		},
	}}
	engine := newTestEngine(t, facade, &config.Config{CleanupToken: "cron-secret", RateLimitRPS: 1, RateLimitBurst: 1})

	if resp := serve(engine, http.MethodDelete, "/api/enrollment/cleanup", nil, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", resp.Code)
	}
	resp := serve(engine, http.MethodDelete, "/api/enrollment/cleanup", nil, map[string]string{middleware.CleanupTokenHeader: "cron-secret"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}
	if calls != 1 {
		t.Fatalf("expected single cleanup call, got %d", calls)
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	engine := newTestEngine(t, testhelpers.CourseMartStub{}, &config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1})
	bearer := map[string]string{"Authorization": "Bearer " + testhelpers.SessionToken(7)}

	if resp := serve(engine, http.MethodPost, "/api/enrollment/create", map[string]int{"courseId": 1}, bearer); resp.Code != http.StatusCreated {
		t.Fatalf("expected first create to pass, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodPost, "/api/enrollment/create", map[string]int{"courseId": 1}, bearer); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second create to be limited, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodGet, "/api/enrollment", nil, bearer); resp.Code != http.StatusOK {
		t.Fatalf("expected reads to bypass limiter, got %d", resp.Code)
	}
}

var _ handlers.CourseMart = testhelpers.CourseMartStub{}
