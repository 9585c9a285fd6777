package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// gatewayClaims is the token payload minted by the SSO gateway in front of
// this service. Only the account is consumed; everything else rides along.
type gatewayClaims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

// GatewayAuth resolves the requester's account. With a gateway secret
// configured it requires a Bearer token signed with that secret. Without
// one it falls back to the local OS identity, which keeps the service
// usable on a developer machine without standing up the gateway.
func GatewayAuth(cfg config.AuthSettings, local port.LocalIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.GatewaySecret == "" {
			account := ""
			if local != nil {
				account = local.Username()
			}
			setAccount(c, account)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing access token"))
			return
		}

		account, err := parseGatewayToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid access token"))
			return
		}

		setAccount(c, account)
		c.Next()
	}
}

func parseGatewayToken(token string, cfg config.AuthSettings) (string, error) {
	claims := &gatewayClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.GatewaySecret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("token invalid")
	}

	account := strings.TrimSpace(claims.Account)
	if account == "" {
		account = claims.Subject
	}
	if account == "" {
		return "", fmt.Errorf("token carries no account")
	}
	return account, nil
}

func setAccount(c *gin.Context, account string) {
	c.Set(AccountKey, account)
	if reqCtx := GetRequestContext(c); reqCtx != nil {
		reqCtx.Account = account
	}
}

// GetAccount retrieves the authenticated account from context (helper for handlers)
func GetAccount(c *gin.Context) (string, bool) {
	value, exists := c.Get(AccountKey)
	if !exists {
		return "", false
	}

	if account, ok := value.(string); ok {
		return account, true
	}

	return "", false
}
