package model

import "time"

type Tag struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

type Post struct {
	ID             int       `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Content        string    `db:"content" json:"content"`
	PublishedDate  time.Time `db:"published_date" json:"published_date"`
	AuthorID       int       `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author"`
	Tags           []Tag     `json:"tags"`
}

type Comment struct {
	ID             int       `db:"id" json:"id"`
	PostID         int       `db:"post_id" json:"post"`
	AuthorID       int       `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
