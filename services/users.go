package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"reelgram/db"
	"reelgram/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

// UserService - тонкая обертка аутентификации и профилей. Выдача токена -
// внешняя способность, ядро системы получает готовый user_id из middleware.
type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash) == parts[1]
}

// Register создает пользователя с захэшированным паролем
func (us *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return nil, ValidationError("username, email and password are required")
	}

	var existing int64
	err := db.GetWriteDB(ctx).
		Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&existing).Error
	if err != nil {
		return nil, InternalError(err)
	}
	if existing > 0 {
		return nil, ConflictError("user already exists")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, InternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: passwordHash,
	}
	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		return nil, InternalError(fmt.Errorf("failed to create user: %w", err))
	}
	return user, nil
}

// Login проверяет пароль и выдает новый токен, старые токены отзываются
func (us *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	err := db.GetWriteDB(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ForbiddenError("invalid credentials")
	}
	if err != nil {
		return "", nil, InternalError(err)
	}

	if !verifyPassword(password, user.Password) {
		return "", nil, ForbiddenError("invalid credentials")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, InternalError(err)
	}
	token := hex.EncodeToString(tokenBytes)

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserTokens{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserTokens{UserID: user.ID, Token: token}).Error
	})
	if err != nil {
		return "", nil, InternalError(err)
	}
	return token, &user, nil
}

// ResolveToken возвращает владельца токена
func (us *UserService) ResolveToken(ctx context.Context, token string) (int64, error) {
	var record models.UserTokens
	err := db.GetReadOnlyDB(ctx).Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ForbiddenError("invalid token")
	}
	if err != nil {
		return 0, InternalError(err)
	}
	return record.UserID, nil
}

// ProfileResponse - профиль пользователя с его постами и счетчиками
type ProfileResponse struct {
	User           models.User   `json:"user"`
	Posts          []models.Post `json:"posts"`
	FollowersCount int           `json:"followersCount"`
	FollowingCount int           `json:"followingCount"`
	PostsCount     int           `json:"postsCount"`
}

// GetProfile возвращает профиль с постами, новые первыми
func (us *UserService) GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("user %d not found", userID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	var posts []models.Post
	err = db.GetReadOnlyDB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, InternalError(err)
	}

	var followers, following int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&followers).Error; err != nil {
		return nil, InternalError(err)
	}
	if err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return nil, InternalError(err)
	}

	return &ProfileResponse{
		User:           user,
		Posts:          posts,
		FollowersCount: int(followers),
		FollowingCount: int(following),
		PostsCount:     len(posts),
	}, nil
}

// UpdateProfile меняет username/bio и, если передан файл, аватар
func (us *UserService) UpdateProfile(ctx context.Context, userID int64, username, bio *string, stagedAvatarPath string) (*models.User, error) {
	var user models.User
	err := db.GetWriteDB(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("user %d not found", userID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	if username != nil && strings.TrimSpace(*username) != "" {
		user.Username = strings.TrimSpace(*username)
	}
	if bio != nil {
		if len(*bio) > 500 {
			return nil, ValidationError("bio cannot exceed 500 characters")
		}
		user.Bio = *bio
	}

	if stagedAvatarPath != "" {
		if BlobStoreInstance == nil {
			return nil, InternalError(fmt.Errorf("blob store is not configured"))
		}
		avatarURL, err := BlobStoreInstance.Upload(ctx, stagedAvatarPath, models.MediaImage)
		if err != nil {
			return nil, UploadError(err)
		}
		user.AvatarURL = avatarURL
	}

	if err := db.GetWriteDB(ctx).Save(&user).Error; err != nil {
		return nil, InternalError(err)
	}
	return &user, nil
}
