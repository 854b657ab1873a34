package model

import "time"

type Author struct {
	ID    int    `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Books []Book `json:"books,omitempty"`
}

type Book struct {
	ID              int       `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	PublicationYear int       `db:"publication_year" json:"publication_year"`
	AuthorID        int       `db:"author_id" json:"author"`
	AuthorName      string    `db:"author_name" json:"author_name"`
	ISBN            string    `db:"isbn" json:"isbn"`
	Description     string    `db:"description" json:"description"`
	AddedBy         *int      `db:"added_by" json:"added_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type Library struct {
	ID        int        `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Location  string     `db:"location" json:"location"`
	Books     []Book     `json:"books,omitempty"`
	Librarian *Librarian `json:"librarian,omitempty"`
}

type Librarian struct {
	ID        int    `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	LibraryID int    `db:"library_id" json:"library"`
}

type Document struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	OwnerID   int       `db:"owner_id" json:"owner"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
