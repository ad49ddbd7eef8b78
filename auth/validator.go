package auth

import (
	"context"

	"team-workspace-server/internal/domain"
	"team-workspace-server/internal/errors"
	"team-workspace-server/internal/note"
	"team-workspace-server/redis"
)

// UserProvider resolves token subjects back to user rows so a token for a
// deleted or deactivated account cannot open a socket.
type UserProvider interface {
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
}

// SocketValidator validates the bearer credential of a websocket handshake
// and resolves it to the identity the note protocol attaches to the session.
type SocketValidator struct {
	users UserProvider
}

func NewSocketValidator(users UserProvider) *SocketValidator {
	return &SocketValidator{users: users}
}

func (v *SocketValidator) Validate(ctx context.Context, credential string) (*note.Identity, error) {
	if credential == "" {
		return nil, errors.Unauthorized("Authorization is not found!", nil)
	}

	parsedToken, err := VerifyJWT(credential)
	if err != nil {
		return nil, errors.Unauthorized("Invalid token!", err)
	}

	userID, _, _, err := GetDataFromToken(parsedToken)
	if err != nil {
		return nil, errors.Unauthorized("Invalid token!", err)
	}

	if redis.RedisClient != nil {
		exists, err := redis.RedisClient.Exists(redis.Ctx, credential).Result()
		if err != nil || exists == 0 {
			return nil, errors.Unauthorized("Token expired or not found", err)
		}
	}

	// re-validate against the db, claims alone are not trusted for identity
	user, err := v.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}
	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	return &note.Identity{
		UserID:     user.ID,
		Username:   user.Username,
		TenantCode: user.CompanyCode,
	}, nil
}
