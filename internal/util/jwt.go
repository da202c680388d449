package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"construction-backend/config"

	"github.com/dgrijalva/jwt-go"
)

const (
	AccessTokenTTL        = 24 * time.Hour
	PasswordResetTokenTTL = time.Hour
	passwordResetType     = "password_reset"
)

func secret() []byte {
	return []byte(config.AppConfig.JWTSecret)
}

func keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return secret(), nil
}

func GenerateToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(AccessTokenTTL).Unix(),
	})

	return token.SignedString(secret())
}

func ValidateToken(tokenString string) (int, error) {
	if tokenString == "" {
		return 0, errors.New("empty token")
	}

	token, err := jwt.Parse(tokenString, keyFunc)
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if tokenType, _ := claims["type"].(string); tokenType != "" {
			return 0, errors.New("not an access token")
		}
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, errors.New("invalid user id")
		}
		return int(userID), nil
	}

	return 0, errors.New("invalid token")
}

// TokenExpiry 返回令牌的过期时间，用于注销时的黑名单
func TokenExpiry(tokenString string) (time.Time, error) {
	token, err := jwt.Parse(tokenString, keyFunc)
	if err != nil {
		return time.Time{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, errors.New("invalid token")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, errors.New("token has no expiry")
	}
	return time.Unix(int64(exp), 0), nil
}

// PasswordFingerprint 密码哈希的短指纹，密码变更后旧的重置令牌随之失效
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

// GeneratePasswordResetToken 生成一小时有效的密码重置令牌
func GeneratePasswordResetToken(email, passwordHash string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"fp":    PasswordFingerprint(passwordHash),
		"exp":   time.Now().Add(PasswordResetTokenTTL).Unix(),
		"type":  passwordResetType,
	})
	return token.SignedString(secret())
}

// ParsePasswordResetToken 解析密码重置令牌，返回邮箱和密码指纹
func ParsePasswordResetToken(tokenString string) (email, fingerprint string, err error) {
	token, err := jwt.Parse(tokenString, keyFunc)
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}
	if tokenType, _ := claims["type"].(string); tokenType != passwordResetType {
		return "", "", errors.New("invalid token type")
	}
	email, ok = claims["email"].(string)
	if !ok || email == "" {
		return "", "", errors.New("token has no email")
	}
	fingerprint, _ = claims["fp"].(string)
	return email, fingerprint, nil
}
