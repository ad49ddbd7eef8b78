package auth

import (
	"strings"

	"team-workspace-server/internal/errors"
	"team-workspace-server/redis"

	"github.com/gin-gonic/gin"
)

func AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery := ctx.Query("token"); tokenQuery != "" {
			token = tokenQuery
		} else {
			errors.HandleError(ctx, errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		// verify token
		parsedToken, err := VerifyJWT(token)
		if err != nil {
			errors.HandleError(ctx, errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, username, companyCode, err := GetDataFromToken(parsedToken)
		if err != nil {
			errors.HandleError(ctx, errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		// check the allowlist on redis: logout revokes tokens before expiry
		if redis.RedisClient != nil {
			exists, err := redis.RedisClient.Exists(redis.Ctx, token).Result()
			if err != nil || exists == 0 {
				errors.HandleError(ctx, errors.Unauthorized("Token expired or not found", err))
				ctx.Abort()
				return
			}
		}

		ctx.Set("user_id", userID)
		ctx.Set("username", username)
		ctx.Set("company_code", companyCode)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}
