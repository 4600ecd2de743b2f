package auth

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/CharanLingolu/StudentMarkTracker-Backend/config"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/db"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/models"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/utils"
)

const claimsContextKey = "claims"

// Claims are the identity fields embedded in a session token
type Claims struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	RollNumber string `json:"rollNumber"`
	jwt.RegisteredClaims
}

// GenerateToken signs a 24-hour token carrying the user's identity and role
func GenerateToken(user models.User) (string, error) {
	claims := Claims{
		ID:         user.ID.Hex(),
		Role:       user.Role,
		Username:   user.Username,
		FullName:   user.FullName,
		RollNumber: user.RollNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.ConfigInstance.JWTSecret))
}

// ParseToken verifies a token string and returns its claims
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.ConfigInstance.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err := db.Users().FindOne(ctx, bson.M{"username": req.Username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Same response as a bad password so the two are indistinguishable
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		} else {
			log.Printf("Error querying user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		}
		return
	}

	if err := utils.ComparePassword(user.Password, req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}

	tokenString, err := GenerateToken(user)
	if err != nil {
		log.Printf("Error signing token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error generating token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tokenString,
		"role":       user.Role,
		"username":   user.Username,
		"fullName":   user.FullName,
		"rollNumber": user.RollNumber,
	})
}

// RequireRoles is the single authorization chokepoint: it verifies the
// bearer token and enforces that the caller's role is in the allowed set.
// An empty set admits any authenticated role. On success the decoded
// claims are attached to the request context for downstream handlers.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			c.Abort()
			return
		}

		if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
			tokenString = tokenString[7:]
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			c.Abort()
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden: insufficient rights"})
				c.Abort()
				return
			}
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the claims RequireRoles attached to the context
func CurrentClaims(c *gin.Context) *Claims {
	claims, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	return claims.(*Claims)
}
