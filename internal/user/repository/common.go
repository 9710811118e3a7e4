package repository

import (
	"errors"
	"time"
)

const (
	userInfoKeyPrefix  = "user:info:"
	userEmailKeyPrefix = "user:email:"

	tokenBlacklistKeyPrefix = "auth:revoked:"

	defaultUserCacheTTL      = 30 * time.Minute
	defaultUserCacheEmptyTTL = 5 * time.Minute
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrEmailExists  = errors.New("email already exists")
)
