package public

import (
	"github.com/gin-gonic/gin"

	"github.com/xiuda-next/internal/constants"
)

// authUserID 从上下文取当前登录用户ID，未登录返回 0
func authUserID(c *gin.Context) uint {
	value, ok := c.Get(constants.CtxUserIDKey)
	if !ok {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}
