package constants

// 用户角色
const (
	RoleClient = "client"
	RoleMaster = "master"
	RoleAdmin  = "admin"
)

// 维修工单状态
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 奖金类型
const (
	BonusTypeReferral        = "referral"
	BonusTypeOrderCommission = "order_commission"
	BonusTypeLevelBonus      = "level_bonus"
	BonusTypeMonthlyBonus    = "monthly_bonus"
	BonusTypeWithdrawal      = "withdrawal"
)

// 奖金状态
const (
	BonusStatusPending   = "pending"
	BonusStatusApproved  = "approved"
	BonusStatusPaid      = "paid"
	BonusStatusCancelled = "cancelled"
)

// 分销层级
const (
	ReferralLevelMax = 3
)

// 队列名称
const (
	QueueDefault = "default"
)

// 队列任务类型
const (
	TaskCommissionUpdated = "referral:commission_updated"
	TaskNetworkUpdated    = "referral:network_updated"
)

// 缓存键前缀
const (
	CacheKeyLedgerSummary = "referral:summary:"
	CacheKeyReferralTree  = "referral:tree:"
)

// 上下文键
const (
	CtxUserIDKey   = "auth_user_id"
	CtxUserRoleKey = "auth_user_role"
)
