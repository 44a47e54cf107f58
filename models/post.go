package models

import "time"

const (
	MaxCaptionLength = 2200
	MaxCommentLength = 500
	MaxReplyLength   = 500
)

// Post - модель поста пользователя. Медиа ровно одно: ImageURL либо VideoURL.
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:post_user_created_idx" json:"user_id"`
	ImageURL  string    `gorm:"size:512" json:"image_url,omitempty"`
	VideoURL  string    `gorm:"size:512" json:"video_url,omitempty"`
	Caption   string    `gorm:"size:2200" json:"caption"`
	CreatedAt time.Time `gorm:"index:post_user_created_idx,sort:desc;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User     *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments []Comment  `gorm:"foreignKey:PostID" json:"comments"`
	Likes    []PostLike `gorm:"foreignKey:PostID" json:"-"`

	LikesCount int64 `gorm:"-" json:"likes_count"`
	Liked      bool  `gorm:"-" json:"liked"`
}

func (Post) TableName() string {
	return "posts"
}

// PostLike - лайк поста. Уникальный индекс (post_id, user_id) дает семантику
// множества: повторная вставка и повторное удаление - no-op.
type PostLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index;uniqueIndex:post_like_idx" json:"post_id"`
	UserID    int64     `gorm:"uniqueIndex:post_like_idx" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// Comment - комментарий к посту. Порядок в посте = порядок вставки (id ASC).
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index" json:"post_id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Text      string    `gorm:"size:500;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	User    *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []Reply `gorm:"foreignKey:CommentID" json:"replies"`
}

func (Comment) TableName() string {
	return "comments"
}

// Reply - ответ на комментарий.
type Reply struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentID int64     `gorm:"index" json:"comment_id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Text      string    `gorm:"size:500;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	LikesCount int64 `gorm:"-" json:"likes_count"`
}

func (Reply) TableName() string {
	return "replies"
}

// ReplyLike - лайк ответа, та же семантика множества, что и у PostLike.
type ReplyLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReplyID   int64     `gorm:"index;uniqueIndex:reply_like_idx" json:"reply_id"`
	UserID    int64     `gorm:"uniqueIndex:reply_like_idx" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReplyLike) TableName() string {
	return "reply_likes"
}

// FeedResponse - ответ API для общей ленты с пагинацией
type FeedResponse struct {
	Posts       []Post `json:"posts"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalPosts  int64  `json:"totalPosts"`
}
