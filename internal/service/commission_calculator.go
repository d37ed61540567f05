package service

import (
	"github.com/shopspring/decimal"

	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/models"
)

// UserLookup 佣金计算所需的最小用户读取能力
type UserLookup interface {
	GetByID(id uint) (*models.User, error)
}

// CommissionLine 一条待入账的佣金
type CommissionLine struct {
	// MasterID 受益师傅
	MasterID uint
	// ViaUserID 该师傅链上的直接下级节点，用于定位推荐边
	ViaUserID uint
	Level     int
	Rate      decimal.Decimal
	Amount    models.Money
}

// CommissionCalculator 纯链路遍历的佣金计算器。
// 比例表与跳数上限在构造时注入；遍历自身不落库。
type CommissionCalculator struct {
	users  UserLookup
	rates  map[int]decimal.Decimal
	hopCap int
}

// DefaultRateTable 默认三级比例：10% / 5% / 3%
func DefaultRateTable() map[int]decimal.Decimal {
	return map[int]decimal.Decimal{
		1: decimal.NewFromFloat(0.10),
		2: decimal.NewFromFloat(0.05),
		3: decimal.NewFromFloat(0.03),
	}
}

// NewCommissionCalculator 创建佣金计算器
func NewCommissionCalculator(users UserLookup, rates map[int]decimal.Decimal, hopCap int) *CommissionCalculator {
	if len(rates) == 0 {
		rates = DefaultRateTable()
	}
	if hopCap <= 0 {
		hopCap = 10
	}
	return &CommissionCalculator{users: users, rates: rates, hopCap: hopCap}
}

// Compute 沿支付客户的推荐链向上遍历，产出 0..N 条佣金。
// 非师傅祖先被跳过且不占用付费层级，下一位师傅取下一个未使用的比例档；
// 无推荐人、链路提前终止或达到跳数上限都只是缩短结果，不是错误。
func (c *CommissionCalculator) Compute(payerID uint, orderAmount decimal.Decimal) ([]CommissionLine, error) {
	lines := make([]CommissionLine, 0, len(c.rates))
	if payerID == 0 || !orderAmount.IsPositive() {
		return lines, nil
	}

	payer, err := c.users.GetByID(payerID)
	if err != nil {
		return nil, err
	}
	if payer == nil || payer.ReferrerID == nil {
		return lines, nil
	}

	level := 1
	currentID := payer.ID
	nextID := payer.ReferrerID
	for hops := 0; nextID != nil && hops < c.hopCap; hops++ {
		rate, ok := c.rates[level]
		if !ok {
			break
		}
		ancestor, err := c.users.GetByID(*nextID)
		if err != nil {
			return nil, err
		}
		if ancestor == nil {
			// 悬挂的推荐指针：链路到此为止
			break
		}
		if ancestor.Role == constants.RoleMaster && ancestor.IsActive {
			amount := orderAmount.Mul(rate).Round(2)
			lines = append(lines, CommissionLine{
				MasterID:  ancestor.ID,
				ViaUserID: currentID,
				Level:     level,
				Rate:      rate,
				Amount:    models.NewMoneyFromDecimal(amount),
			})
			level++
		}
		currentID = ancestor.ID
		nextID = ancestor.ReferrerID
	}
	return lines, nil
}
