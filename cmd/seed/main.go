package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiuda-next/internal/config"
	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/service"
)

// 演示推荐链：admin，师傅 M2 → 师傅 M1 → 客户 C（M1 推荐 C，M2 推荐 M1）
func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}
	logger.Init(cfg.App.Mode, logger.Options{Dir: cfg.Log.Dir, Filename: cfg.Log.Filename})
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	passwordHash, err := service.HashPassword("password123")
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}

	admin := seedUser(stdLog, &models.User{
		Name:         "管理员",
		Email:        "admin@xiuda.local",
		PasswordHash: passwordHash,
		Role:         constants.RoleAdmin,
		ReferralCode: "ADMIN",
		IsActive:     true,
	})
	m2 := seedUser(stdLog, &models.User{
		Name:         "王师傅",
		Email:        "master2@xiuda.local",
		PasswordHash: passwordHash,
		Role:         constants.RoleMaster,
		ReferralCode: "M2CODE",
		IsActive:     true,
	})
	m1 := seedUser(stdLog, &models.User{
		Name:         "李师傅",
		Email:        "master1@xiuda.local",
		PasswordHash: passwordHash,
		Role:         constants.RoleMaster,
		ReferrerID:   &m2.ID,
		ReferralCode: "M1CODE",
		IsActive:     true,
	})
	client := seedUser(stdLog, &models.User{
		Name:         "张先生",
		Email:        "client@xiuda.local",
		PasswordHash: passwordHash,
		Role:         constants.RoleClient,
		ReferrerID:   &m1.ID,
		ReferralCode: "C1CODE",
		IsActive:     true,
	})
	_ = admin

	seedReferral(stdLog, m2.ID, m1.ID)
	seedReferral(stdLog, m1.ID, client.ID)

	order := &models.RepairOrder{
		OrderNo:   fmt.Sprintf("RO%d", time.Now().Unix()),
		ClientID:  client.ID,
		MasterID:  &m1.ID,
		Appliance: "air_conditioner",
		Title:     "空调不制冷维修",
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10000)),
		Status:    constants.OrderStatusPendingPayment,
	}
	var existing models.RepairOrder
	if err := models.DB.Where("client_id = ? AND status = ?", client.ID, constants.OrderStatusPendingPayment).
		First(&existing).Error; err != nil {
		if err := models.DB.Create(order).Error; err != nil {
			stdLog.Printf("Failed to create demo order: %v", err)
		} else {
			stdLog.Printf("Created demo order: %s", order.OrderNo)
		}
	} else {
		stdLog.Printf("Demo order already exists: %s", existing.OrderNo)
	}

	stdLog.Printf("Seed finished")
}

func seedUser(stdLog *log.Logger, user *models.User) *models.User {
	var existing models.User
	if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		stdLog.Printf("User already exists: %s", user.Email)
		return &existing
	}
	if err := models.DB.Create(user).Error; err != nil {
		stdLog.Printf("Failed to create user %s: %v", user.Email, err)
		return user
	}
	stdLog.Printf("Created user: %s (%s)", user.Email, user.Role)
	return user
}

func seedReferral(stdLog *log.Logger, referrerID, referredID uint) {
	var existing models.Referral
	if err := models.DB.Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		First(&existing).Error; err == nil {
		return
	}
	edge := &models.Referral{ReferrerID: referrerID, ReferredID: referredID, IsActive: true}
	if err := models.DB.Create(edge).Error; err != nil {
		stdLog.Printf("Failed to create referral %d -> %d: %v", referrerID, referredID, err)
		return
	}
	stdLog.Printf("Created referral edge: %d -> %d", referrerID, referredID)
}
