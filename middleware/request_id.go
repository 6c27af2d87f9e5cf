package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sentrygate/securevault/utils"
)

// ContextRequestIDKey stores the request id inside the gin context.
const ContextRequestIDKey = "request_id"

// RequestID attaches a correlation id to every request, honoring one already
// supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := ctx.GetHeader(utils.RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx.Set(ContextRequestIDKey, rid)
		ctx.Writer.Header().Set(utils.RequestIDHeader, rid)
		ctx.Next()
	}
}
