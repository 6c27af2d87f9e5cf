package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sentrygate/securevault/config"
	"github.com/sentrygate/securevault/utils"
)

// ContextWalletSubjectKey stores the wallet-abstraction subject (the
// provider's user id) inside the gin context.
const ContextWalletSubjectKey = "wallet_subject"

// WalletSessionAuth verifies bearer tokens issued by the wallet-abstraction
// login provider (ES256, audience = provider app id). It is a no-op when the
// provider is not configured: entitlement is then enforced solely by the
// on-chain check.
func WalletSessionAuth() gin.HandlerFunc {
	cfg := config.Get()
	return walletSessionAuth(cfg.PrivyAppID, cfg.PrivyVerificationKey)
}

func walletSessionAuth(appID, verificationKey string) gin.HandlerFunc {
	if appID == "" || verificationKey == "" {
		return func(ctx *gin.Context) { ctx.Next() }
	}

	pub, err := jwt.ParseECPublicKeyFromPEM([]byte(verificationKey))
	if err != nil {
		utils.Sugar.Fatalf("invalid wallet-auth verification key: %v", err)
	}

	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(ctx, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(ctx, "invalid authorization header format")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return pub, nil
		}, jwt.WithAudience(appID))
		if err != nil || !token.Valid {
			unauthorized(ctx, "invalid wallet session token")
			return
		}

		ctx.Set(ContextWalletSubjectKey, claims.Subject)
		ctx.Next()
	}
}

func unauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
}
