package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
)

// RedisClient is an optional shared Redis client used for access-token
// revocation. It stays nil when REDIS_ADDR is not configured; logout then
// relies on refresh-token revocation alone.
var RedisClient *redis.Client

func init() {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return
	}
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		var dbn int
		_, _ = fmt.Sscanf(dbStr, "%d", &dbn)
		opts.DB = dbn
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		fmt.Printf("warning: redis ping failed: %v\n", err)
		return
	}
	RedisClient = rc
}

type contextKey string

const UserIDKey = contextKey("userID")
const UserRoleKey = contextKey("userRole")
const AdminIDKey = contextKey("adminID")
const RequestIDKey = contextKey("requestID")

func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateAccessToken issues a short-lived user access token (15 minutes).
func GenerateAccessToken(userID uint, role string) (string, error) {
	return signToken(int64(userID), role, 15*time.Minute)
}

// GenerateAdminToken issues an admin session token (6 hours).
func GenerateAdminToken(adminID int64) (string, error) {
	return signToken(adminID, "admin", 6*time.Hour)
}

func signToken(id int64, role string, expiry time.Duration) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	now := time.Now()
	jti, err := generateJTI(16)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  now.Add(expiry).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  jti,
		"aud":  os.Getenv("JWT_AUD"),
		"iss":  os.Getenv("JWT_ISS"),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateRefreshToken creates an opaque refresh token, stores it and returns
// the token string.
func GenerateRefreshToken(userID uint) (string, error) {
	if database.DB == nil {
		return "", errors.New("database not initialized")
	}
	rt, err := models.NewRefreshToken(userID, 7)
	if err != nil {
		return "", err
	}
	if err := database.DB.Create(rt).Error; err != nil {
		return "", err
	}
	return rt.ID, nil
}

// ValidateRefreshToken looks up a stored refresh token and rejects it when
// revoked or expired.
func ValidateRefreshToken(id string) (*models.RefreshToken, error) {
	if database.DB == nil {
		return nil, errors.New("database not initialized")
	}
	var rt models.RefreshToken
	if err := database.DB.Where("id = ?", id).First(&rt).Error; err != nil {
		return nil, errors.New("refresh token not found")
	}
	if rt.Revoked || time.Now().After(rt.ExpiresAt) {
		return nil, errors.New("refresh token expired or revoked")
	}
	return &rt, nil
}

// ValidateAccessToken parses the token, enforces HS256 and registered claims
// and checks the Redis denylist when configured.
func ValidateAccessToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, nil, errors.New("JWT_SECRET is not set")
	}
	token, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Require exact HS256 to avoid algorithm confusion.
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return token, nil, errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if exp, ok := claimInt64(claims, "exp"); ok && now > exp {
		return token, nil, errors.New("token expired")
	}
	if nbf, ok := claimInt64(claims, "nbf"); ok && now < nbf {
		return token, nil, errors.New("token not yet valid")
	}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		if got, _ := claims["aud"].(string); got != aud {
			return token, nil, errors.New("invalid audience")
		}
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		if got, _ := claims["iss"].(string); got != iss {
			return token, nil, errors.New("invalid issuer")
		}
	}
	if jti, _ := claims["jti"].(string); jti != "" && IsTokenRevoked(jti) {
		return token, nil, errors.New("token revoked")
	}
	return token, claims, nil
}

func claimInt64(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// RevokeToken denylists an access-token jti until its natural expiry.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if RedisClient == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return RedisClient.Set(ctx, "revoked_jti:"+jti, "1", ttl).Err()
}

// IsTokenRevoked checks the denylist; without Redis it always reports false.
func IsTokenRevoked(jti string) bool {
	if RedisClient == nil {
		return false
	}
	n, err := RedisClient.Exists(context.Background(), "revoked_jti:"+jti).Result()
	return err == nil && n > 0
}

// GetUserID extracts the authenticated user id placed by AuthMiddleware.
func GetUserID(r *http.Request) (uint, bool) {
	v := r.Context().Value(UserIDKey)
	id, ok := v.(uint)
	return id, ok
}

// GetAdminID extracts the authenticated admin id placed by AdminAuthMiddleware.
func GetAdminID(r *http.Request) (int64, bool) {
	v := r.Context().Value(AdminIDKey)
	id, ok := v.(int64)
	return id, ok
}
