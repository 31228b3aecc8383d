package models

import "time"

// AnonymousAuthorName replaces the real username wherever an anonymous
// post's author is displayed. Ownership is unaffected.
const AnonymousAuthorName = "Anonymous"

// Post is a unit of content: an image and/or a video with an optional caption.
// ImagePath and VideoPath are media-store relative paths; at least one must be
// set, which is enforced at validation time rather than by the schema.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Caption   string    `gorm:"size:2000" json:"caption"`
	ImagePath string    `gorm:"size:512" json:"image_path"`
	VideoPath string    `gorm:"size:512" json:"video_path"`
	Anonymous bool      `gorm:"default:false" json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Likes    []Like    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"likes"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`

	// Derived per request, never persisted.
	DisplayAuthor string `gorm:"-" json:"display_author"`
	LikedByUser   bool   `gorm:"-" json:"liked_by_user"`
	LikeCount     int    `gorm:"-" json:"like_count"`
	CommentCount  int    `gorm:"-" json:"comment_count"`
}

// HasMedia reports whether the post still carries at least one media asset.
func (p *Post) HasMedia() bool {
	return p.ImagePath != "" || p.VideoPath != ""
}

// AuthorName resolves the display name, honoring the anonymous flag.
func (p *Post) AuthorName() string {
	if p.Anonymous {
		return AnonymousAuthorName
	}
	return p.Author.Username
}
