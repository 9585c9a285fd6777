package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
)

type staticIdentity struct {
	username string
	hostname string
}

func (s staticIdentity) Username() string { return s.username }
func (s staticIdentity) Hostname() string { return s.hostname }

func signGatewayToken(t *testing.T, secret, issuer, account string, expiresIn time.Duration) string {
	t.Helper()

	claims := gatewayClaims{
		Account: account,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func authRouter(cfg config.AuthSettings, local staticIdentity) *gin.Engine {
	router := gin.New()
	router.Use(GatewayAuth(cfg, local))
	router.GET("/whoami", func(c *gin.Context) {
		account, _ := GetAccount(c)
		c.String(http.StatusOK, account)
	})
	return router
}

func TestGatewayAuthFallsBackToLocalIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := authRouter(config.AuthSettings{}, staticIdentity{username: "jdoe"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "jdoe" {
		t.Fatalf("expected local identity account, got %q", rr.Body.String())
	}
}

func TestGatewayAuthAcceptsSignedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.AuthSettings{GatewaySecret: "secret", Issuer: "sso-gateway"}
	router := authRouter(cfg, staticIdentity{username: "local"})

	token := signGatewayToken(t, "secret", "sso-gateway", "ipetrov", time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ipetrov" {
		t.Fatalf("expected token account, got %q", rr.Body.String())
	}
}

func TestGatewayAuthRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.AuthSettings{GatewaySecret: "secret", Issuer: "sso-gateway"}
	router := authRouter(cfg, staticIdentity{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGatewayAuthRejectsExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.AuthSettings{GatewaySecret: "secret", Issuer: "sso-gateway"}
	router := authRouter(cfg, staticIdentity{})

	token := signGatewayToken(t, "secret", "sso-gateway", "ipetrov", -time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGatewayAuthRejectsWrongSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.AuthSettings{GatewaySecret: "secret", Issuer: "sso-gateway"}
	router := authRouter(cfg, staticIdentity{})

	token := signGatewayToken(t, "other-secret", "sso-gateway", "ipetrov", time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
