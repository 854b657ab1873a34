package api

import (
	"encoding/json"
	"strings"
	"time"
)

// TagList 接受 JSON 陣列或以逗號分隔的字串
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = normalizeTags(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTags(s)
	return nil
}

// ParseTags 以逗號切分，去除空白與重複
func ParseTags(s string) TagList {
	return normalizeTags(strings.Split(s, ","))
}

func normalizeTags(in []string) TagList {
	seen := map[string]bool{}
	out := TagList{}
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return out
}

// swagger:model api.PostRequest
type PostRequest struct {
	Title   string  `json:"title" form:"title" validate:"required,notblank,max=200" example:"Hello"`
	Content string  `json:"content" form:"content" validate:"required,notblank" example:"First post"`
	Tags    TagList `json:"tags" swaggertype:"array,string" example:"go,web"`
}

// swagger:model api.TagResponse
type TagResponse struct {
	Name string `json:"name" example:"Go Lang"`
	Slug string `json:"slug" example:"go-lang"`
}

// swagger:model api.PostResponse
type PostResponse struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	PublishedDate time.Time         `json:"published_date"`
	Author        string            `json:"author" example:"alice"`
	AuthorID      int               `json:"author_id"`
	Tags          []TagResponse     `json:"tags"`
	Comments      []CommentResponse `json:"comments,omitempty"`
}

// swagger:model api.PostPageResponse
type PostPageResponse struct {
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	NumPages int            `json:"num_pages"`
	Results  []PostResponse `json:"results"`
}

// swagger:model api.CommentRequest
type CommentRequest struct {
	Content string `json:"content" form:"content" validate:"required,notblank" example:"Nice post"`
}

// swagger:model api.CommentResponse
type CommentResponse struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post"`
	Author    string    `json:"author"`
	AuthorID  int       `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
