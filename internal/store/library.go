package store

import (
	"context"
	"errors"
	"fmt"

	"library-hub/internal/database"
	"library-hub/internal/model"

	"github.com/jackc/pgx/v5"
)

func ListLibraries(ctx context.Context, db database.Querier) ([]model.Library, error) {
	rows, err := db.Query(ctx, `SELECT id, name, location FROM libraries ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("ListLibraries: %w", err)
	}
	defer rows.Close()

	libs := []model.Library{}
	for rows.Next() {
		var l model.Library
		if err := rows.Scan(&l.ID, &l.Name, &l.Location); err != nil {
			return nil, fmt.Errorf("ListLibraries: %w", err)
		}
		libs = append(libs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListLibraries: %w", err)
	}
	return libs, nil
}

// GetLibrary 取得圖書館、館藏與館員（可能為 nil）
func GetLibrary(ctx context.Context, db database.Querier, id int) (*model.Library, error) {
	l := &model.Library{}
	if err := db.QueryRow(ctx,
		`SELECT id, name, location FROM libraries WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Location); err != nil {
		return nil, fmt.Errorf("GetLibrary: %w", err)
	}
	return loadLibraryRelations(ctx, db, l, "GetLibrary")
}

func GetLibraryByName(ctx context.Context, db database.Querier, name string) (*model.Library, error) {
	l := &model.Library{}
	if err := db.QueryRow(ctx,
		`SELECT id, name, location FROM libraries WHERE name = $1 ORDER BY id LIMIT 1`, name,
	).Scan(&l.ID, &l.Name, &l.Location); err != nil {
		return nil, fmt.Errorf("GetLibraryByName: %w", err)
	}
	return loadLibraryRelations(ctx, db, l, "GetLibraryByName")
}

func loadLibraryRelations(ctx context.Context, db database.Querier, l *model.Library, op string) (*model.Library, error) {
	books, err := ListBooks(ctx, db, BookFilter{LibraryID: &l.ID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l.Books = books

	lib, err := GetLibrarianByLibrary(ctx, db, l.ID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	default:
		l.Librarian = lib
	}
	return l, nil
}

func CreateLibrary(ctx context.Context, db database.Querier, l *model.Library) (*model.Library, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO libraries (name, location) VALUES ($1, $2) RETURNING id`,
		l.Name, l.Location,
	).Scan(&l.ID); err != nil {
		return nil, fmt.Errorf("CreateLibrary: %w", err)
	}
	l.Books = []model.Book{}
	return l, nil
}

func UpdateLibrary(ctx context.Context, db database.Querier, l *model.Library) error {
	tag, err := db.Exec(ctx,
		`UPDATE libraries SET name = $1, location = $2 WHERE id = $3`,
		l.Name, l.Location, l.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateLibrary: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("UpdateLibrary: %w", err)
	}
	return nil
}

func DeleteLibrary(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM libraries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteLibrary: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeleteLibrary: %w", err)
	}
	return nil
}

func AddBookToLibrary(ctx context.Context, db database.Querier, libraryID, bookID int) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO library_books (library_id, book_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		libraryID, bookID,
	); err != nil {
		return fmt.Errorf("AddBookToLibrary: %w", err)
	}
	return nil
}

func RemoveBookFromLibrary(ctx context.Context, db database.Querier, libraryID, bookID int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM library_books WHERE library_id = $1 AND book_id = $2`,
		libraryID, bookID,
	)
	if err != nil {
		return fmt.Errorf("RemoveBookFromLibrary: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("RemoveBookFromLibrary: %w", err)
	}
	return nil
}

func GetLibrarianByLibrary(ctx context.Context, db database.Querier, libraryID int) (*model.Librarian, error) {
	lb := &model.Librarian{}
	if err := db.QueryRow(ctx,
		`SELECT id, name, library_id FROM librarians WHERE library_id = $1`, libraryID,
	).Scan(&lb.ID, &lb.Name, &lb.LibraryID); err != nil {
		return nil, fmt.Errorf("GetLibrarianByLibrary: %w", err)
	}
	return lb, nil
}

// UpsertLibrarian 每間圖書館僅有一位館員，已存在則改名
func UpsertLibrarian(ctx context.Context, db database.Querier, libraryID int, name string) (*model.Librarian, error) {
	lb := &model.Librarian{}
	if err := db.QueryRow(ctx,
		`INSERT INTO librarians (name, library_id) VALUES ($1, $2)
		 ON CONFLICT (library_id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, library_id`,
		name, libraryID,
	).Scan(&lb.ID, &lb.Name, &lb.LibraryID); err != nil {
		return nil, fmt.Errorf("UpsertLibrarian: %w", err)
	}
	return lb, nil
}
