package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"abonado-server-go/internal/domain/auth"
	authstore "abonado-server-go/internal/domain/auth/store"
	"abonado-server-go/internal/domain/subscriber/aggregate"
	"abonado-server-go/internal/domain/subscriber/service"
	httptransport "abonado-server-go/internal/transport/http"
	"abonado-server-go/internal/platform/config"
	"abonado-server-go/internal/platform/logging"
	"abonado-server-go/internal/platform/storage"
)

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:webapi-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&storage.Subscriber{}, &storage.User{}, &storage.AuthSession{}, &storage.DomainEvent{}))

	logger, err := logging.New(logging.Config{Level: "error"})
	assert.NoError(t, err)

	hash, err := auth.HashPassword("admin123")
	assert.NoError(t, err)
	assert.NoError(t, db.Create(&storage.User{Username: "admin", PasswordHash: hash}).Error)

	manager, err := auth.NewManager(auth.Options{
		Store:      authstore.NewMemory(authstore.Config{TTL: time.Minute}),
		Users:      storage.NewUserRepository(db),
		Logger:     logger,
		JWTSecret:  "test-secret",
		SessionTTL: time.Minute,
	})
	assert.NoError(t, err)
	t.Cleanup(func() {
		_ = manager.Close()
	})

	subscribers := service.NewSubscriberService(storage.NewSubscriberRepository(db))

	cfg := config.Default()
	router, err := httptransport.Build(httptransport.Options{
		Config:         cfg,
		Logger:         logger,
		AuthMiddleware: AuthMiddleware(manager, logger),
		StaticRoot:     t.TempDir(),
	})
	assert.NoError(t, err)

	svc, err := NewService(cfg, logger, subscribers, manager)
	assert.NoError(t, err)
	assert.NoError(t, svc.Register(context.Background(), router.API, router.Secured))

	token, err := manager.Login(context.Background(), "admin", "admin123", "127.0.0.1")
	assert.NoError(t, err)

	return &testEnv{
		engine: router.Engine,
		db:     db,
		token:  token,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, authed bool) (*httptest.ResponseRecorder, httptransport.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	var resp httptransport.APIResponse
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func (e *testEnv) seed(t *testing.T, number string) int {
	t.Helper()
	repo := storage.NewSubscriberRepository(e.db)
	sub, err := aggregate.NewSubscriber(number, "clave")
	assert.NoError(t, err)
	assert.NoError(t, repo.Save(context.Background(), sub))
	return sub.ID
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.request(t, http.MethodGet, "/api/abonados", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.request(t, http.MethodGet, "/api/abonados/search?n_abonado=12345", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.request(t, http.MethodPost, "/api/user/login", gin.H{
		"username": "admin",
		"password": "mala",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "usuario o contraseña incorrectos", resp.Message)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.request(t, http.MethodPost, "/api/user/login", gin.H{
		"username": "admin",
		"password": "admin123",
	}, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	token := data["token"].(string)
	assert.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	profileRec := httptest.NewRecorder()
	env.engine.ServeHTTP(profileRec, req)
	assert.Equal(t, http.StatusOK, profileRec.Code)
}

func TestSearchValidation(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.request(t, http.MethodGet, "/api/abonados/search?n_abonado=12ab", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "N_ABONADO debe tener entre 5 y 6 dígitos numéricos", resp.Message)
}

func TestSearchFoundAndAbsent(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "12345")

	rec, resp := env.request(t, http.MethodGet, "/api/abonados/search?n_abonado=12345", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "12345", data["nAbonado"])

	rec, resp = env.request(t, http.MethodGet, "/api/abonados/search?n_abonado=99999", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp.Data)
	assert.Contains(t, resp.Message, "no se encontró")
}

func TestEditTransaction(t *testing.T) {
	env := newTestEnv(t)
	id := env.seed(t, "12345")

	rec, resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/abonados/%d", id), gin.H{
		"olt":       "OLT01",
		"interface": "1/1",
		"onu":       "7",
		"marca":     "BDCOM",
		"mac":       "AA:BB:CC:DD:EE:10",
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "AA:BB:CC:DD:EE:15", data["macAjustada"])
}

func TestEditRejectsONUOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	id := env.seed(t, "12345")

	rec, resp := env.request(t, http.MethodPost, fmt.Sprintf("/api/abonados/%d", id), gin.H{
		"onu": "129",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "el numero maximo de ONU es 128", resp.Message)

	// 整行保持原状
	var model storage.Subscriber
	assert.NoError(t, env.db.First(&model, id).Error)
	assert.Nil(t, model.ONU)
	assert.Equal(t, "", model.OLT)
}

func TestEditMissingSubscriberIs404(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.request(t, http.MethodPost, "/api/abonados/999", gin.H{"onu": "1"}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearKeepsRow(t *testing.T) {
	env := newTestEnv(t)
	id := env.seed(t, "12345")

	_, _ = env.request(t, http.MethodPost, fmt.Sprintf("/api/abonados/%d", id), gin.H{
		"olt":   "OLT01",
		"onu":   "3",
		"marca": "LATIC",
		"mac":   "AA:BB:CC:DD:EE:01",
	}, true)

	rec, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/abonados/%d/clear", id), nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	var model storage.Subscriber
	assert.NoError(t, env.db.First(&model, id).Error)
	assert.Equal(t, "12345", model.SubscriberNumber)
	assert.Equal(t, "", model.OLT)
	assert.Nil(t, model.ONU)
	assert.Equal(t, "", model.MAC)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.request(t, http.MethodPost, "/api/user/logout", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.request(t, http.MethodGet, "/api/abonados", nil, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminStatus(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.request(t, http.MethodGet, "/api/admin/status", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.GreaterOrEqual(t, data["goroutines"].(float64), float64(1))
}
