package public

import (
	"github.com/xiuda-next/internal/service"
)

// Handler 公共与用户端接口处理器
type Handler struct {
	AuthService       *service.AuthService
	CommissionService *service.CommissionService
	PayoutService     *service.PayoutService
	NetworkService    *service.NetworkService
}

// NewHandler 创建处理器
func NewHandler(
	authService *service.AuthService,
	commissionService *service.CommissionService,
	payoutService *service.PayoutService,
	networkService *service.NetworkService,
) *Handler {
	return &Handler{
		AuthService:       authService,
		CommissionService: commissionService,
		PayoutService:     payoutService,
		NetworkService:    networkService,
	}
}

func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
