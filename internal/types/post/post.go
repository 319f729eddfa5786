package post

import (
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaText:
		return true
	}
	return false
}

type Post struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	Sport     string    `json:"sport" db:"sport"`
	MediaURL  *string   `json:"media_url,omitempty" db:"media_url"`
	MediaType MediaType `json:"media_type" db:"media_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Author is the public slice of the poster's profile shown in the feed.
type Author struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProfilePhoto *string   `json:"profile_photo,omitempty"`
}

type FeedPost struct {
	Post
	Author Author `json:"author"`
}

type CreatePostRequest struct {
	Caption   string    `json:"caption"`
	Sport     string    `json:"sport"`
	MediaURL  string    `json:"media_url"`
	MediaType MediaType `json:"media_type"`
}
