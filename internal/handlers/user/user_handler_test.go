package user

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fashionsphere-service/internal/middleware"
	"fashionsphere-service/internal/pkg/jwt"
	"fashionsphere-service/internal/pkg/response"
	"fashionsphere-service/internal/repository/memory"
	authUsecase "fashionsphere-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := jwt.NewManager(key, &key.PublicKey, jwt.Config{Issuer: "fashionsphere", Audience: "web", TTL: time.Hour})

	h := NewUserHandler(authUsecase.NewAuthService(memory.NewUserRepository(), tokens, nil, zap.NewNop()), zap.NewNop())
	auth := middleware.NewAuthMiddleware(tokens.Verifier)

	r := gin.New()
	r.POST("/users/register", h.Register)
	r.POST("/users/login", h.Login)
	r.GET("/users/me", auth.Protect(), h.Me)
	r.POST("/users/sale-notification", auth.Protect(), h.SetSaleNotification)
	return r
}

func post(r http.Handler, method, path, token, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	data, _ := resp.Data.(map[string]interface{})
	return w.Code, data
}

func TestRegisterLoginAndPreference(t *testing.T) {
	r := newRouter(t)

	status, reg := post(r, http.MethodPost, "/users/register", "",
		`{"name":"Ada","email":"Ada@Example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, reg["token"])

	status, _ = post(r, http.MethodPost, "/users/register", "",
		`{"name":"Ada again","email":"ada@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = post(r, http.MethodPost, "/users/login", "", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, login := post(r, http.MethodPost, "/users/login", "", `{"email":"ada@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, status)
	token := login["token"].(string)

	status, me := post(r, http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, false, me["saleNotification"])
	assert.NotContains(t, me, "passwordHash")

	status, updated := post(r, http.MethodPost, "/users/sale-notification", token, `{"saleNotification":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, updated["saleNotification"])

	status, _ = post(r, http.MethodPost, "/users/sale-notification", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegister_Validation(t *testing.T) {
	r := newRouter(t)

	status, _ := post(r, http.MethodPost, "/users/register", "", `{"name":"Ada","email":"not-an-email","password":"secret123"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(r, http.MethodPost, "/users/register", "", `{"name":"Ada","email":"ada@example.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}
