package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"travelease/models"
	"travelease/services/api"
	"travelease/utils"
)

// UserIDHeader carries the caller's user id next to the token.
const UserIDHeader = "X-User-ID"

// UserFetcher validates a token by fetching the user it belongs to.
type UserFetcher interface {
	GetUser(ctx context.Context, user *models.CurrentUser) (*models.UserProfile, error)
}

type authCacheEntry struct {
	TokenHash string             `json:"tokenHash"`
	Profile   models.UserProfile `json:"profile"`
}

// TokenAuthMiddleware authenticates "Authorization: Token <value>" plus the
// X-User-ID header against the remote API. The profile returned for the
// header's id must carry that id when it carries one. Validated tokens are
// cached by hash in authCache; a nil authCache disables caching.
func TokenAuthMiddleware(users UserFetcher, authCache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()
		ctx := c.Request.Context()

		token, ok := utils.ParseTokenHeader(c.GetHeader("Authorization"))
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if !ok || userID == "" {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "authenticationRequired", "Insufficient authorization", "")
			return
		}
		computedHash := utils.HashToken(token)
		user := &models.CurrentUser{UserID: userID, Token: token, TokenHash: computedHash}
		cacheKey := utils.AuthCachePrefix + userID

		if authCache != nil {
			data, err := authCache.Get(ctx, cacheKey).Bytes()
			if err == nil {
				var entry authCacheEntry
				if json.Unmarshal(data, &entry) == nil && entry.TokenHash == computedHash && ownsProfile(userID, &entry.Profile) {
					_ = authCache.Expire(ctx, cacheKey, utils.AuthCacheTTL).Err()
					setUser(c, user, &entry.Profile)
					c.Next()
					return
				}
			} else if !errors.Is(err, redis.Nil) {
				logger.Warn("Error retrieving auth cache key, falling back to remote lookup", zap.Error(err))
			}
		}

		profile, err := users.GetUser(ctx, user)
		if err != nil {
			switch api.StatusCode(err) {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
				utils.JSONErrorCode(c, http.StatusUnauthorized, "invalidToken", "Authentication error", "")
			default:
				logger.Error("Token validation failed", zap.String("userId", userID), zap.Error(err))
				utils.JSONErrorCode(c, http.StatusBadGateway, "upstreamUnavailable", "Authentication service unavailable", "")
			}
			return
		}
		if !ownsProfile(userID, profile) {
			logger.Warn("Token does not belong to the claimed user",
				zap.String("userId", userID), zap.String("profileId", profile.ID))
			utils.JSONErrorCode(c, http.StatusUnauthorized, "invalidToken", "Authentication error", "")
			return
		}

		if authCache != nil {
			data, _ := json.Marshal(authCacheEntry{TokenHash: computedHash, Profile: *profile})
			if err := authCache.Set(ctx, cacheKey, data, utils.AuthCacheTTL).Err(); err != nil {
				logger.Warn("Failed to cache auth entry", zap.Error(err))
			}
		}

		setUser(c, user, profile)
		c.Next()
	}
}

// ownsProfile reports whether the profile fetched with the caller's token is
// the user named in the header. A profile without an id is accepted; local
// state is still scoped to the token through CurrentUser.StateKey.
func ownsProfile(userID string, profile *models.UserProfile) bool {
	return profile.ID == "" || profile.ID == userID
}

func setUser(c *gin.Context, user *models.CurrentUser, profile *models.UserProfile) {
	c.Set(utils.CurrentUserKey, user)
	c.Set(utils.UserProfileKey, profile)
}

// CurrentUser returns the user set by TokenAuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.CurrentUser {
	v, ok := c.Get(utils.CurrentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.CurrentUser)
	return u
}

// UserProfile returns the profile fetched during authentication, or nil.
func UserProfile(c *gin.Context) *models.UserProfile {
	v, ok := c.Get(utils.UserProfileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.UserProfile)
	return p
}

// authCacheTimeout bounds cache round trips made outside a request.
const authCacheTimeout = 2 * time.Second

// RevokeCachedToken drops a user's cached token so the next request is
// validated remotely again.
func RevokeCachedToken(authCache *redis.Client, userID string) error {
	if authCache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), authCacheTimeout)
	defer cancel()
	return authCache.Del(ctx, utils.AuthCachePrefix+userID).Err()
}
