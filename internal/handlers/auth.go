package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/VIIT-EP/exam-service/internal/config"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
)

// studentTokenTTL bounds student sessions; longer than the longest exam so a
// token never dies mid-attempt.
const studentTokenTTL = 8 * time.Hour

// AuthMiddleware authenticates staff through Casdoor and students through
// locally issued JWTs.
type AuthMiddleware struct {
	client    *casdoorsdk.Client
	userRepo  repositories.UserRepository
	jwtSecret []byte
}

func NewAuthMiddleware(cfg config.CasdoorConfig, jwtSecret string, userRepo repositories.UserRepository) *AuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &AuthMiddleware{
		client:    client,
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

// StaffAuth validates a Casdoor token and resolves the local staff account by
// email, creating one on first sight.
func (am *AuthMiddleware) StaffAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := am.client.ParseJwtToken(token)
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("invalid token: %v", err))
			return
		}

		user, err := am.resolveStaff(c, claims)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Admin passes everywhere.
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("user_role")
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "role missing from context"})
			return
		}
		userRole, _ := role.(models.UserRole)
		if userRole == models.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "insufficient permissions"})
	}
}

type studentClaims struct {
	StudentID uint   `json:"student_id"`
	LoginCode string `json:"login_code"`
	jwt.RegisteredClaims
}

// IssueStudentToken signs a session token after a successful login.
func (am *AuthMiddleware) IssueStudentToken(student *models.Student) (string, error) {
	now := time.Now()
	claims := studentClaims{
		StudentID: student.ID,
		LoginCode: student.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   student.StudentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(studentTokenTTL)),
			Issuer:    "exam-service",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(am.jwtSecret)
}

// StudentAuth validates a locally issued student token.
func (am *AuthMiddleware) StudentAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims := &studentClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return am.jwtSecret, nil
		})
		if err != nil || !parsed.Valid {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set("student_id", claims.StudentID)
		c.Set("student_code", claims.LoginCode)
		c.Next()
	}
}

func (am *AuthMiddleware) resolveStaff(c *gin.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	email := claims.User.Email
	if email == "" {
		return nil, fmt.Errorf("token carries no email")
	}

	user, err := am.userRepo.GetByEmail(c.Request.Context(), email)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	// First login of a Casdoor account: mirror it locally.
	user = &models.User{
		FullName: claims.User.DisplayName,
		Email:    email,
		Password: "-", // staff authenticate via Casdoor only
		Role:     mapCasdoorRole(claims.User.Type),
	}
	if err := am.userRepo.Create(c.Request.Context(), user); err != nil {
		return nil, fmt.Errorf("failed to mirror staff account: %w", err)
	}
	return user, nil
}

func mapCasdoorRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	default:
		return models.RoleTeacher
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortUnauthorized(c, "authorization header missing")
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		abortUnauthorized(c, "invalid authorization header format")
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: msg})
}

// studentIDFromContext reads the authenticated student's id.
func studentIDFromContext(c *gin.Context) (uint, bool) {
	v, ok := c.Get("student_id")
	if !ok {
		abortUnauthorized(c, "student not authenticated")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		abortUnauthorized(c, "student not authenticated")
		return 0, false
	}
	return id, true
}

// userIDFromContext reads the authenticated staff user's id.
func userIDFromContext(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		abortUnauthorized(c, "user not authenticated")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		abortUnauthorized(c, "user not authenticated")
		return 0, false
	}
	return id, true
}
