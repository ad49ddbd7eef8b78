package auth

import (
	"errors"
	"time"

	"team-workspace-server/internal/config"
	"team-workspace-server/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT issues an HS256 token carrying the identity the socket layer
// needs: user id, username, and company code.
func GenerateJWT(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":          user.ID,
		"username":     user.Username,
		"company_code": user.CompanyCode,
		"exp":          time.Now().Add(time.Hour * 24 * 3).Unix(), // expires in 3 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	// parse token
	jwtToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	// isValid
	if !jwtToken.Valid {
		return nil, errors.New("token invalid")
	}

	return jwtToken, nil
}

// GetDataFromToken extracts the identity claims from a verified token.
func GetDataFromToken(token *jwt.Token) (userID uint64, username string, companyCode string, err error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", "", errors.New("unexpected claims type")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", "", errors.New("missing sub claim")
	}

	username, ok = claims["username"].(string)
	if !ok {
		return 0, "", "", errors.New("missing username claim")
	}

	companyCode, ok = claims["company_code"].(string)
	if !ok {
		return 0, "", "", errors.New("missing company_code claim")
	}

	return uint64(sub), username, companyCode, nil
}
