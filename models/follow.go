package models

import "time"

// Follow - ребро графа подписок: follower подписан на followee.
// Одна строка на ребро, поэтому инвариант симметрии
// (A в followers B <=> B в following A) выполняется по построению.
type Follow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID int64     `gorm:"index;uniqueIndex:follow_edge_idx" json:"follower_id"`
	FolloweeID int64     `gorm:"index;uniqueIndex:follow_edge_idx" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
