package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-cart/internal/config"
	"github.com/your-org/storefront-cart/internal/domain/session"
	"github.com/your-org/storefront-cart/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var sessionCfg = config.SessionConfig{
	CookieName: "session_id",
	TTL:        time.Hour,
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCfg.CookieName {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", sessionCfg.CookieName)
	return nil
}

func TestSession_UnmodifiedSessionIsNotSaved(t *testing.T) {
	store := session.NewMemoryStore()
	r := gin.New()
	r.Use(Session(store, sessionCfg, quietLogger()))
	r.GET("/", func(c *gin.Context) {
		sess, ok := GetSession(c)
		require.True(t, ok)
		assert.True(t, sess.IsNew())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, store.Len())
	ck := sessionCookie(t, w)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, 3600, ck.MaxAge)
}

func TestSession_ModifiedSessionIsSavedAndReloaded(t *testing.T) {
	store := session.NewMemoryStore()
	r := gin.New()
	r.Use(Session(store, sessionCfg, quietLogger()))
	r.POST("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		require.NoError(t, sess.Set("greeting", "hello"))
		c.Status(http.StatusCreated)
	})
	r.GET("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		var v string
		found, err := sess.Get("greeting", &v)
		require.NoError(t, err)
		assert.True(t, found)
		c.String(http.StatusOK, v)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, store.Len())
	ck := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, ck.Value, sessionCookie(t, w).Value)
}

type brokenStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (b *brokenStore) Load(ctx context.Context, id string) (*session.Session, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return session.New(), nil
}

func (b *brokenStore) Save(ctx context.Context, s *session.Session) error {
	b.saves++
	return b.saveErr
}

func (b *brokenStore) Destroy(ctx context.Context, id string) error { return nil }

func TestSession_LoadFailureAborts(t *testing.T) {
	r := gin.New()
	r.Use(Session(&brokenStore{loadErr: errors.New("redis down")}, sessionCfg, quietLogger()))
	called := false
	r.GET("/", func(c *gin.Context) { called = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, called)
}

func TestSession_SaveFailureIsNotSurfaced(t *testing.T) {
	store := &brokenStore{saveErr: errors.New("redis down")}
	r := gin.New()
	r.Use(Session(store, sessionCfg, quietLogger()))
	r.GET("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		require.NoError(t, sess.Set("cart", map[string]int{}))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.saves)
}

func TestSession_EmptiedSessionIsDestroyed(t *testing.T) {
	store := session.NewMemoryStore()
	r := gin.New()
	r.Use(Session(store, sessionCfg, quietLogger()))
	r.POST("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		require.NoError(t, sess.Set("greeting", "hello"))
		c.Status(http.StatusCreated)
	})
	r.DELETE("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		assert.True(t, sess.Delete("greeting"))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, 1, store.Len())
	ck := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, store.Len())
}

func TestSession_NewEmptySessionIsNotStored(t *testing.T) {
	store := &brokenStore{}
	r := gin.New()
	r.Use(Session(store, sessionCfg, quietLogger()))
	r.GET("/", func(c *gin.Context) {
		sess, _ := GetSession(c)
		sess.MarkModified()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, store.saves)
}

func newRateLimitedRouter(t *testing.T, limit int) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RateLimit(rdb, limit, quietLogger()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, mr
}

func TestRateLimit(t *testing.T) {
	r, mr := newRateLimitedRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	mr.FastForward(time.Minute + time.Second)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_RedisDownAllowsRequest(t *testing.T) {
	r, mr := newRateLimitedRouter(t, 1)
	mr.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	const incoming = "0b7f0d2e-5a57-4d8e-9f3e-2b1d3c4e5f60"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too large body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	sec := config.SecurityConfig{
		CORSAllowedOrigins: []string{"https://shop.example", "*.example.org"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Content-Type"},
	}
	r := gin.New()
	r.Use(CORS(sec))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://shop.example", true},
		{"https://eu.example.org", true},
		{"https://example.org", false},
		{"https://evilexample.org", false},
		{"https://other.test", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if tt.allowed {
			assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"), tt.origin)
		} else {
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), tt.origin)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthAndAdminMiddleware(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "test"},
		JWT: config.JWTConfig{Secret: strings.Repeat("s", 32), AccessTokenExpiry: time.Hour},
	}
	jwtManager := auth.NewJWTManager(cfg)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(jwtManager), AdminMiddleware(), func(c *gin.Context) {
		email, _ := GetUserEmailFromContext(c)
		c.String(http.StatusOK, email)
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer not-a-jwt").Code)

	userToken, _, err := jwtManager.GenerateAccessToken("user@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+userToken).Code)

	adminToken, _, err := jwtManager.GenerateAccessToken("admin@example.com", true)
	require.NoError(t, err)
	w := call("Bearer " + adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", w.Body.String())
}

func TestLogger_DoesNotAlterResponse(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(quietLogger()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusTeapot, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=1", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
