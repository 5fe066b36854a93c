package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/saathi-app/saathi-server/internal/types"
	"golang.org/x/crypto/bcrypt"
)

var defaultExp = time.Hour * 24 * 30

const (
	idClaim   = "id"
	typeClaim = "type"
	nameClaim = "name"
	expClaim  = "exp"
)

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, ident types.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func IdentityFrom(ctx context.Context) (types.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(types.Identity)
	return ident, ok
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}

func (s *SaathiApp) createToken(ident types.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		idClaim:   ident.Id,
		typeClaim: string(ident.Type),
		nameClaim: ident.Name,
		expClaim:  time.Now().Add(defaultExp).Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *SaathiApp) identityFromToken(tokenString string) (types.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	})
	if err != nil {
		return types.Identity{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return types.Identity{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return types.Identity{}, fmt.Errorf("invalid token claims")
	}

	id, ok := claims[idClaim].(string)
	if !ok {
		return types.Identity{}, fmt.Errorf("invalid id claim")
	}
	identType, ok := claims[typeClaim].(string)
	if !ok {
		return types.Identity{}, fmt.Errorf("invalid type claim")
	}
	name, _ := claims[nameClaim].(string)

	return types.Identity{
		Id:   id,
		Type: types.IdentityType(identType),
		Name: name,
	}, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns the empty string when the header is missing or malformed.
func bearerToken(authHeader string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
}
