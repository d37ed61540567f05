package service

import "errors"

// 服务层错误
var (
	ErrNotFound            = errors.New("record not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrLedgerNotFound      = errors.New("master ledger not found")
	ErrBonusStatusInvalid  = errors.New("bonus status does not allow this transition")
	ErrSelfReferral        = errors.New("user cannot refer themselves")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrOrderAlreadyPaid    = errors.New("order already paid")
	ErrConcurrencyConflict = errors.New("concurrent update conflict, please retry")
)
