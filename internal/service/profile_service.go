package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
)

// ErrProfileNotFound 在用户档案不存在时返回
var ErrProfileNotFound = errors.New("profile not found")

// ErrProfileInvalidInput 在档案输入不合法时返回
var ErrProfileInvalidInput = errors.New("profile invalid input")

// ProfileService 维护两项独立的展示偏好：显示名与头像路径。
// 核心统计逻辑不依赖它们。

type ProfileService struct {
	db *gorm.DB
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{db: gdb}
}

// Get 根据用户 ID 返回档案
func (s *ProfileService) Get(userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &user, nil
}

// UpdateDisplayName 更新显示名，空串视为不合法
func (s *ProfileService) UpdateDisplayName(userID uint, displayName string) (*db.User, error) {
	trimmed := strings.TrimSpace(displayName)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrProfileInvalidInput)
	}

	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = trimmed
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update display name: %w", err)
	}
	return user, nil
}

// SetAvatar 记录头像文件的访问路径
func (s *ProfileService) SetAvatar(userID uint, avatarPath string) (*db.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	user.AvatarPath = strings.TrimSpace(avatarPath)
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return user, nil
}
