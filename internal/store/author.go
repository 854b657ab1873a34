package store

import (
	"context"
	"fmt"

	"library-hub/internal/database"
	"library-hub/internal/model"
)

func CreateAuthor(ctx context.Context, db database.Querier, a *model.Author) (*model.Author, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO authors (name) VALUES ($1) RETURNING id`, a.Name,
	).Scan(&a.ID); err != nil {
		return nil, fmt.Errorf("CreateAuthor: %w", err)
	}
	a.Books = []model.Book{}
	return a, nil
}

// GetAuthor 取得作者與其所有著作
func GetAuthor(ctx context.Context, db database.Querier, id int) (*model.Author, error) {
	a := &model.Author{}
	if err := db.QueryRow(ctx, `SELECT id, name FROM authors WHERE id = $1`, id).Scan(&a.ID, &a.Name); err != nil {
		return nil, fmt.Errorf("GetAuthor: %w", err)
	}
	books, err := ListBooks(ctx, db, BookFilter{AuthorID: &a.ID})
	if err != nil {
		return nil, fmt.Errorf("GetAuthor: %w", err)
	}
	a.Books = books
	return a, nil
}

func GetAuthorByName(ctx context.Context, db database.Querier, name string) (*model.Author, error) {
	a := &model.Author{}
	if err := db.QueryRow(ctx,
		`SELECT id, name FROM authors WHERE name = $1 ORDER BY id LIMIT 1`, name,
	).Scan(&a.ID, &a.Name); err != nil {
		return nil, fmt.Errorf("GetAuthorByName: %w", err)
	}
	return a, nil
}

func AuthorExists(ctx context.Context, db database.Querier, id int) (bool, error) {
	var ok bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("AuthorExists: %w", err)
	}
	return ok, nil
}

// ListAuthors 以兩次查詢取得全部作者與書籍後在記憶體中組裝
func ListAuthors(ctx context.Context, db database.Querier) ([]model.Author, error) {
	rows, err := db.Query(ctx, `SELECT id, name FROM authors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListAuthors: %w", err)
	}
	defer rows.Close()

	authors := []model.Author{}
	index := map[int]int{}
	for rows.Next() {
		a := model.Author{Books: []model.Book{}}
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("ListAuthors: %w", err)
		}
		index[a.ID] = len(authors)
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAuthors: %w", err)
	}
	if len(authors) == 0 {
		return authors, nil
	}

	books, err := ListBooks(ctx, db, BookFilter{})
	if err != nil {
		return nil, fmt.Errorf("ListAuthors: %w", err)
	}
	for _, b := range books {
		if i, ok := index[b.AuthorID]; ok {
			authors[i].Books = append(authors[i].Books, b)
		}
	}
	return authors, nil
}

func UpdateAuthor(ctx context.Context, db database.Querier, a *model.Author) error {
	tag, err := db.Exec(ctx, `UPDATE authors SET name = $1 WHERE id = $2`, a.Name, a.ID)
	if err != nil {
		return fmt.Errorf("UpdateAuthor: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("UpdateAuthor: %w", err)
	}
	return nil
}

// DeleteAuthor 連同其書籍一併刪除 (ON DELETE CASCADE)
func DeleteAuthor(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteAuthor: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeleteAuthor: %w", err)
	}
	return nil
}
