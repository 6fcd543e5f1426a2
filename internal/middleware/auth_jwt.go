package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"shop/internal/notify"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

// AuthUsecase.Loginが発行するアクセストークンの中身
type accessClaims struct {
	Sub  int64            `json:"sub"`
	Role string           `json:"role"`
	TV   *int             `json:"tv"`
	Exp  *jwt.NumericDate `json:"exp"`
	JTI  string           `json:"jti,omitempty"`
}

var errBadClaims = errors.New("invalid claims")

// jwt.Claims
func (c *accessClaims) Valid() error {
	if c.Exp == nil || !time.Now().Before(c.Exp.Time) {
		return errors.New("token expired")
	}
	if c.Sub <= 0 || c.Role == "" || c.TV == nil || *c.TV < 0 {
		return errBadClaims
	}
	return nil
}

var jwtParser = jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

// bearerAuth用のJWT検証ミドルウェア。
// 通ったらuser_id / role / token_versionをcontextに置く
func AuthJWT(secret string) echo.MiddlewareFunc {
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return unauthorized(c)
			}

			var claims accessClaims
			token, err := jwtParser.ParseWithClaims(raw, &claims, keyFunc)
			if err != nil || !token.Valid {
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, claims.Sub)
			c.Set(CtxUserRoleKey, claims.Role)
			c.Set(CtxTokenVersionKey, *claims.TV)
			return next(c)
		}
	}
}

// "Bearer <token>"からtokenを抜く（Bearerは大小文字を問わない）
func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, found := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// handler.ErrorResponseと同じ形
type errorResponse struct {
	Error    string           `json:"error"`
	Messages []notify.Message `json:"messages,omitempty"`
}

// 未ログイン（トークン無し・期限切れ・失効）はログインを促す
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{
		Error:    "authentication required",
		Messages: []notify.Message{notify.Warning("Log in to continue")},
	})
}
