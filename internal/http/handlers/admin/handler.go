package admin

import (
	"github.com/xiuda-next/internal/service"
)

// Handler 管理端接口处理器
type Handler struct {
	CommissionService *service.CommissionService
}

// NewHandler 创建管理端处理器
func NewHandler(commissionService *service.CommissionService) *Handler {
	return &Handler{CommissionService: commissionService}
}
