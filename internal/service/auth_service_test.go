package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/xiuda-next/internal/config"
	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/repository"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewAuthService(repository.NewUserRepository(db), config.JWTConfig{
		Secret:     "auth-service-test-secret-0123456789abcdef",
		ExpireHour: 1,
		Issuer:     "xiuda-next-test",
	})
	return svc, db
}

func createLoginUser(t *testing.T, db *gorm.DB, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := &models.User{
		Name:         "测试用户",
		Email:        email,
		PasswordHash: hash,
		Role:         constants.RoleMaster,
		ReferralCode: fmt.Sprintf("AUTH%d", time.Now().UnixNano()),
		IsActive:     active,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	// IsActive 带 default:true，零值 false 会被 GORM 跳过，需显式落库
	if err := db.Model(user).Update("is_active", active).Error; err != nil {
		t.Fatalf("set is_active failed: %v", err)
	}
	return user
}

func TestLoginAndParseToken(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	user := createLoginUser(t, db, "master@example.com", "password123", true)

	token, loggedIn, err := svc.Login("master@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("unexpected user: %d", loggedIn.ID)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != constants.RoleMaster {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "xiuda-next-test" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	createLoginUser(t, db, "master@example.com", "password123", true)

	if _, _, err := svc.Login("master@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login("nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	createLoginUser(t, db, "frozen@example.com", "password123", false)

	if _, _, err := svc.Login("frozen@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	user := createLoginUser(t, db, "master@example.com", "password123", true)

	token, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	if _, err := svc.ParseToken(token + "x"); err == nil {
		t.Fatalf("tampered token must be rejected")
	}

	other := NewAuthService(nil, config.JWTConfig{Secret: "another-secret-value-0123456789abcdef"})
	if _, err := other.ParseToken(token); err == nil {
		t.Fatalf("token signed with a different secret must be rejected")
	}
}
