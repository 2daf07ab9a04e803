package models

import "time"

// Comment lives inside its task's comment list.
type Comment struct {
	ID          string     `json:"id" bson:"id"`
	CreatedBy   *User      `json:"createdBy,omitempty" bson:"createdBy"`
	CommentText string     `json:"commentText" bson:"commentText"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
