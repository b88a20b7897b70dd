package common

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SignedToken represents a validated proof download token
type SignedToken struct {
	BlobKey   string
	TokenID   string
	ExpiresAt time.Time
}

// URLSignerService generates and validates presigned URLs for stored proof blobs
type URLSignerService struct {
	secretKey []byte
	basePath  string
	ttl       time.Duration
}

// NewURLSignerService creates a new URL signer service. basePath is the route the
// blob key is appended to, e.g. "/api/proofs/".
func NewURLSignerService(secretKey []byte, basePath string, ttl time.Duration) *URLSignerService {
	return &URLSignerService{
		secretKey: secretKey,
		basePath:  basePath,
		ttl:       ttl,
	}
}

// GeneratePresignedURL returns a time-limited URL for the given blob key
func (s *URLSignerService) GeneratePresignedURL(blobKey string) (string, error) {
	tokenID := uuid.New().String()
	now := time.Now()

	claims := jwt.MapClaims{
		"blob_key": blobKey,
		"jti":      tokenID,
		"exp":      now.Add(s.ttl).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return s.basePath + url.PathEscape(blobKey) + "?token=" + url.QueryEscape(tokenString), nil
}

// ValidateToken validates a presigned token and checks it was issued for blobKey
func (s *URLSignerService) ValidateToken(tokenString string, blobKey string) (*SignedToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	key, ok := (*claims)["blob_key"].(string)
	if !ok {
		return nil, errors.New("missing or invalid blob_key claim")
	}
	if key != blobKey {
		return nil, errors.New("token was not issued for this proof")
	}

	tokenID, _ := (*claims)["jti"].(string)

	expFloat, ok := (*claims)["exp"].(float64)
	if !ok {
		return nil, errors.New("missing or invalid exp claim")
	}

	return &SignedToken{
		BlobKey:   key,
		TokenID:   tokenID,
		ExpiresAt: time.Unix(int64(expFloat), 0),
	}, nil
}
