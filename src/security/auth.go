package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/coolchillgy/pay/src/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

const (
	RoleAdmin   = "admin"
	RoleCompany = "company"
)

// Claims is the identity carried by an access token.
type Claims struct {
	UserID    int64
	Role      string
	CompanyID int64 // zero for admins
}

type AuthService struct {
	JWTSecret string
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{
		JWTSecret: secret,
	}
}

func (a *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *AuthService) CompareHashAndPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateToken issues an access token for an admin or company account.
func (a *AuthService) GenerateToken(userID int64, role string, companyID int64) (string, error) {
	if config.Cfg == nil {
		// Should not happen if LoadConfig is called at startup.
		return "", errors.New("configuration not loaded, cannot determine token expiry")
	}
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"exp":  time.Now().Add(config.Cfg.TokenExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	if role == RoleCompany {
		claims["company_id"] = companyID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

// GenerateAPIKey produces the opaque webhook key handed to a company.
// Unpadded so the key is safe as a URL path segment.
func (a *AuthService) GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, errors.New("invalid token: 'sub' claim missing or not a string")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, errors.New("invalid token: 'sub' claim is not a numeric id")
	}

	role, ok := mapClaims["role"].(string)
	if !ok || (role != RoleAdmin && role != RoleCompany) {
		return nil, errors.New("invalid token: 'role' claim missing or unknown")
	}

	claims := &Claims{UserID: userID, Role: role}
	if companyID, ok := mapClaims["company_id"].(float64); ok {
		claims.CompanyID = int64(companyID)
	}
	return claims, nil
}
