package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesoten/nft-game-gateway/internal/auth"
)

func newTestRouter() (*gin.Engine, *auth.Service) {
	gin.SetMode(gin.TestMode)
	authService := auth.NewService(auth.Config{
		TokenKey: "test-key",
		Username: "operator",
		Password: "secret",
	})

	router := gin.New()
	handler := NewHandler(authService, nil, nil, nil)
	SetupRoutes(router, handler, authService)
	return router, authService
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health-check", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestLoginIssuesToken(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"operator","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success   bool   `json:"success"`
		Token     string `json:"token"`
		ExpiredIn int    `json:"exprired_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)
	// Frozen legacy contract: misspelled key, fixed value
	assert.Equal(t, 7200, body.ExpiredIn)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"operator","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Wrong username or password")
}

func TestLoginRejectsEmptyFields(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"","password":""}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Bad request")
}

func TestVerifyGameTokenIssuesToken(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/game-nft-collection/verify-gesoten-login-token?token=platform-token", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success   bool   `json:"success"`
		Token     string `json:"token"`
		ExpiredIn int    `json:"exprired_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, 7200, body.ExpiredIn)
}

func TestVerifyGameTokenRejectsEmptyToken(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/game-nft-collection/verify-gesoten-login-token", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Token invalid")
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nft-info?txHash=0xabc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteRejectsBadToken(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nft-info?txHash=0xabc", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteAcceptsIssuedToken(t *testing.T) {
	router, authService := newTestRouter()

	token, err := authService.Issue("operator")
	require.NoError(t, err)

	// Missing txHash fails validation, which proves the request got
	// past the auth middleware
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nft-info", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Bad request")
}

func TestNativeCoinTransferValidatesBody(t *testing.T) {
	router, authService := newTestRouter()

	token, err := authService.Issue("operator")
	require.NoError(t, err)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/native-coin-transfer",
			strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("network_id", "polygon")
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"receiveAddress":"0xabc","amount":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "fromPrivate is required!")

	w = post(`{"owerPrivateKey":"0xkey","amount":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "receiver is required!")

	w = post(`{"owerPrivateKey":"0xkey","receiveAddress":"0xabc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "amount is required!")
}

func TestSetBaseURIRequiresKey(t *testing.T) {
	router, authService := newTestRouter()

	token, err := authService.Issue("operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/erc1155/set-base-uri",
		strings.NewReader(`{"baseUri":"ipfs://base/"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("network_id", "polygon")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "fromPrivate is required!")
}

func TestChainRouteRequiresNetworkHeader(t *testing.T) {
	router, authService := newTestRouter()

	token, err := authService.Issue("operator")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/validate-address?address=0xabc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Network is not supported")
}
