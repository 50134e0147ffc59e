package models

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
	"gorm.io/gorm"
)

const userSessionCacheTTL = 10 * time.Minute

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ShopsId      string    `gorm:"size:36;not null;index" json:"shopsId"`
	Username     string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null;default:'Staff'" json:"role"`
	Permissions  string    `gorm:"type:text" json:"permissions"`
	DeviceId     *string   `gorm:"size:36" json:"-"`
	RefreshToken *string   `gorm:"type:text" json:"-"`
	IsActive     *bool     `gorm:"not null;default:true" json:"isActive"`
	CreatedBy    string    `gorm:"size:100" json:"createdBy"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewUser struct {
	Username    string   `json:"username" validate:"required,min=3,max=100"`
	Password    string   `json:"password" validate:"required,min=6,max=72"`
	ShopsId     *string  `json:"shopsId"`
	Role        UserRole `json:"role" validate:"omitempty,oneof=Admin Staff"`
	Permissions []string `json:"permissions"`
}

// LoginInfo carries the token pair issued by SignIn.
type LoginInfo struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserId       string `json:"userId"`
	Username     string `json:"username"`
}

type ResponseVerify struct {
	Success bool `json:"success"`
}

/*
caches:
	User:$id  the registered device of the user's session
*/

type userSession struct {
	DeviceId string `json:"deviceId"`
}

func userCacheKey(id string) string {
	return "User:" + id
}

func (user User) RemoveInstanceRedis(ctx context.Context) {
	if err := config.RemoveRedisKey(ctx, userCacheKey(user.ID)); err != nil {
		config.LogWarn(config.GetLogger(), "user.go", "RemoveInstanceRedis", user.ID, err)
	}
}

// cacheSession overwrites the cached session with the row just written; a
// signed-out user is cached with an empty device. The entry is dropped when
// the write fails.
func (user User) cacheSession(ctx context.Context) {
	session := userSession{DeviceId: utils.DereferencePtr(user.DeviceId)}
	if err := config.SetRedisObject(ctx, userCacheKey(user.ID), &session, userSessionCacheTTL); err != nil {
		config.LogWarn(config.GetLogger(), "user.go", "cacheSession", user.ID, err)
		user.RemoveInstanceRedis(ctx)
	}
}

func (user User) accessClaims() utils.AccessClaims {
	return utils.AccessClaims{
		Role:     string(user.Role),
		Info:     utils.AccessInfo{Functions: utils.SplitAndTrim(user.Permissions)},
		DeviceId: utils.DereferencePtr(user.DeviceId),
		UserId:   user.ID,
		UserName: user.Username,
		ShopsId:  user.ShopsId,
	}
}

func findUser(ctx context.Context, query string, args ...interface{}) (*User, error) {
	var user User
	db := config.GetDB()
	err := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).Where(query, args...).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Login verifies the password and starts a new session. The fresh device id
// and refresh token overwrite the previous ones, so tokens issued by an
// earlier login stop passing the device check.
func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	user, err := findUser(ctx, "username = ?", strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}
	if !utils.DereferencePtr(user.IsActive, true) {
		return nil, utils.ErrInvalidCredentials
	}

	deviceId := uuid.NewString()
	user.DeviceId = &deviceId
	accessToken, err := utils.GenerateAccessToken(user.accessClaims())
	if err != nil {
		return nil, err
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).Model(user).Updates(map[string]interface{}{
		"device_id":     deviceId,
		"refresh_token": refreshToken,
	}).Error
	if err != nil {
		return nil, err
	}
	user.cacheSession(ctx)

	return &LoginInfo{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserId:       user.ID,
		Username:     user.Username,
	}, nil
}

// RefreshAccessToken issues a new access token for the current session. The
// refresh token must be the one stored at login; it is not rotated.
func RefreshAccessToken(ctx context.Context, refreshToken string) (*LoginInfo, error) {
	claims, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, utils.ErrUnauthorized
	}
	user, err := findUser(ctx, "id = ?", claims.UserId)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.ErrUnauthorized
		}
		return nil, err
	}
	stored := utils.DereferencePtr(user.RefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return nil, utils.ErrUnauthorized
	}
	if !utils.DereferencePtr(user.IsActive, true) || utils.DereferencePtr(user.DeviceId) == "" {
		return nil, utils.ErrUnauthorized
	}

	accessToken, err := utils.GenerateAccessToken(user.accessClaims())
	if err != nil {
		return nil, err
	}
	return &LoginInfo{
		AccessToken: accessToken,
		UserId:      user.ID,
		Username:    user.Username,
	}, nil
}

// SignOut ends the caller's session by clearing the device id and refresh
// token together.
func SignOut(ctx context.Context, userId string) (*ResponseId, error) {
	callerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || callerId == "" {
		return nil, utils.ErrUnauthorized
	}
	if userId != callerId {
		return nil, utils.ErrForbidden
	}
	user, err := findUser(ctx, "id = ?", userId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).Model(user).Updates(map[string]interface{}{
		"device_id":     nil,
		"refresh_token": nil,
	}).Error
	if err != nil {
		return nil, err
	}
	user.DeviceId = nil
	user.cacheSession(ctx)
	return &ResponseId{Id: userId}, nil
}

// VerifyAccessToken checks signature and expiry only.
func VerifyAccessToken(token string) *ResponseVerify {
	_, err := utils.ValidateAccessToken(token)
	return &ResponseVerify{Success: err == nil}
}

// GetDeviceId returns the device registered for the user's current session,
// or Unauthorized when the user is signed out.
func GetDeviceId(ctx context.Context, userId string) (string, error) {
	var session userSession
	exists, err := config.GetRedisObject(ctx, userCacheKey(userId), &session)
	if err != nil {
		config.LogWarn(config.GetLogger(), "user.go", "GetDeviceId", "read cache", err)
	}
	if !exists {
		user, err := findUser(ctx, "id = ?", userId)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return "", utils.ErrUnauthorized
			}
			return "", err
		}
		session.DeviceId = utils.DereferencePtr(user.DeviceId)
		// a login or sign-out that finished after the read above already
		// cached the newer session
		if err := config.SetRedisObjectNX(ctx, userCacheKey(userId), &session, userSessionCacheTTL); err != nil {
			config.LogWarn(config.GetLogger(), "user.go", "GetDeviceId", "write cache", err)
		}
	}
	if session.DeviceId == "" {
		return "", utils.ErrUnauthorized
	}
	return session.DeviceId, nil
}

// CreateUser adds an account to the caller's shop.
func CreateUser(ctx context.Context, input *NewUser) (*ResponseId, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if shopsId := utils.DereferencePtr(input.ShopsId); shopsId != "" && shopsId != a.ShopsId {
		return nil, utils.ErrForbidden
	}
	return CreateShopUser(ctx, a.ShopsId, a.UserName, input)
}

// CreateShopUser adds an account to shopsId. It backs CreateUser and the
// seed-user command.
func CreateShopUser(ctx context.Context, shopsId string, createdBy string, input *NewUser) (*ResponseId, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if shopsId == "" {
		return nil, utils.NewBadRequest("shopsId is required")
	}
	if _, err := findUser(ctx, "username = ?", input.Username); err == nil {
		return nil, utils.ErrDuplicated
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = UserRoleStaff
	}
	active := true
	user := User{
		ID:          uuid.NewString(),
		ShopsId:     shopsId,
		Username:    input.Username,
		Password:    hashedPassword,
		Role:        role,
		Permissions: strings.Join(utils.UniqueSlice(input.Permissions), ","),
		IsActive:    &active,
		CreatedBy:   createdBy,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &ResponseId{Id: user.ID}, nil
}
