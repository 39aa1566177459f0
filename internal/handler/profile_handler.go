package handler

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
	"golang.org/x/image/draw"
)

// 头像统一缩放到的边长
const avatarSize = 256

func userPayload(user db.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"avatar":       user.AvatarPath,
	}
}

// GetProfile 返回当前登录用户的资料
func (a *API) GetProfile(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	user, err := a.profiles.Get(userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, "用户不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取资料失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(*user)})
}

// UpdateProfile 更新展示名称
func (a *API) UpdateProfile(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	user, err := a.profiles.UpdateDisplayName(userID, payload.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound):
			respondError(c, http.StatusNotFound, "用户不存在")
		case errors.Is(err, service.ErrProfileInvalidInput):
			respondError(c, http.StatusBadRequest, "展示名称不能为空")
		default:
			respondError(c, http.StatusInternalServerError, "更新资料失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(*user)})
}

// UploadAvatar 处理头像上传：解码、等比缩放到 256x256 内、转存为 PNG
func (a *API) UploadAvatar(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取图片失败")
		return
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		respondError(c, http.StatusBadRequest, "不支持的图片格式")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0755); err != nil {
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	filename := fmt.Sprintf("avatar-%s.png", uuid.New().String())
	filePath := filepath.Join(a.uploadDir, filename)

	out, err := os.Create(filePath)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}
	defer out.Close()

	if err := png.Encode(out, scaleAvatar(decoded)); err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	avatarURL := a.uploadURL + "/" + filename
	user, err := a.profiles.SetAvatar(userID, avatarURL)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "更新头像失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(*user)})
}

// scaleAvatar 将图片等比缩放到 avatarSize 边长以内，小图保持原尺寸
func scaleAvatar(src image.Image) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= avatarSize && height <= avatarSize {
		return src
	}

	ratio := float64(avatarSize) / float64(width)
	if height > width {
		ratio = float64(avatarSize) / float64(height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(width)*ratio), int(float64(height)*ratio)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
