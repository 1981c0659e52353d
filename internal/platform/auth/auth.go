// Package auth issues and verifies staff bearer tokens. Roles are not chosen
// by callers: they derive from the employee ID prefix (DOC- doctor, NUR-
// nurse, TEC- technician), matching the hospital's badge numbering.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	RoleDoctor     = "doctor"
	RoleNurse      = "nurse"
	RoleTechnician = "technician"
)

var employeeIDPattern = regexp.MustCompile(`^(DOC|NUR|TEC)-\d{4}$`)

// RoleForEmployeeID maps a badge number to a role. Returns an error for IDs
// outside the DOC-####/NUR-####/TEC-#### scheme.
func RoleForEmployeeID(employeeID string) (string, error) {
	if !employeeIDPattern.MatchString(employeeID) {
		return "", fmt.Errorf("invalid employee id format: must start with DOC-, NUR-, or TEC- followed by four digits")
	}
	switch employeeID[:3] {
	case "DOC":
		return RoleDoctor, nil
	case "NUR":
		return RoleNurse, nil
	default:
		return RoleTechnician, nil
	}
}

type contextKey string

const (
	staffIDKey contextKey = "staff_id"
	roleKey    contextKey = "staff_role"
)

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenIssuer signs and verifies staff session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue returns a signed token identifying the staff member.
func (t *TokenIssuer) Issue(staffID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and returns the staff id and role.
func (t *TokenIssuer) Verify(tokenString string) (uuid.UUID, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	if !token.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid subject: %w", err)
	}
	return id, claims.Role, nil
}

// Middleware authenticates the Authorization: Bearer header and stores the
// staff identity in the request context.
func (t *TokenIssuer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			}

			staffID, role, err := t.Verify(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			ctx := context.WithValue(c.Request().Context(), staffIDKey, staffID)
			ctx = context.WithValue(ctx, roleKey, role)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// StaffIDFromContext returns the authenticated staff id, or uuid.Nil.
func StaffIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(staffIDKey).(uuid.UUID)
	return id
}

// RoleFromContext returns the authenticated staff role, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// WithIdentity returns a context carrying a staff identity. Test helper and
// hook for internal calls made outside a request.
func WithIdentity(ctx context.Context, staffID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, staffIDKey, staffID)
	return context.WithValue(ctx, roleKey, role)
}

// RequireRole guards a route group: the caller must hold one of the roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			has := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if has == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
