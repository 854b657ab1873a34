package store

import (
	"context"
	"fmt"
	"strings"

	"library-hub/internal/database"
	"library-hub/internal/model"

	sq "github.com/Masterminds/squirrel"
)

// BookFilter 對應書籍列表的查詢參數，nil 代表不過濾
type BookFilter struct {
	Title              *string
	TitleContains      *string
	AuthorID           *int
	AuthorName         *string
	AuthorNameContains *string
	LibraryID          *int
	Year               *int
	YearGte            *int
	YearLte            *int
	// Search 中每個詞都必須出現在書名或作者名
	Search []string
	// Ordering 例如 []string{"-publication_year", "title"}
	Ordering []string
	// ByID 忽略 Ordering，只依 id 排序
	ByID bool
}

// bookOrderColumns 允許排序的欄位
var bookOrderColumns = map[string]string{
	"title":            "b.title",
	"author":           "b.author_id",
	"publication_year": "b.publication_year",
}

// orderBy 轉換排序參數，未知欄位略過，最後以 id 定序
func orderBy(fields []string) []string {
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		dir := "ASC"
		if strings.HasPrefix(f, "-") {
			dir = "DESC"
			f = f[1:]
		}
		col, ok := bookOrderColumns[f]
		if !ok {
			continue
		}
		out = append(out, col+" "+dir)
	}
	if len(out) == 0 {
		out = append(out, "b.title ASC")
	}
	return append(out, "b.id ASC")
}

const bookColumns = `b.id, b.title, b.publication_year, b.author_id, a.name,
	b.isbn, b.description, b.added_by, b.created_at, b.updated_at`

func scanBook(row scanner) (*model.Book, error) {
	b := &model.Book{}
	if err := row.Scan(
		&b.ID,
		&b.Title,
		&b.PublicationYear,
		&b.AuthorID,
		&b.AuthorName,
		&b.ISBN,
		&b.Description,
		&b.AddedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return b, nil
}

// bookQuery 組出 SELECT 語句
func bookQuery(f BookFilter) sq.SelectBuilder {
	q := psql.Select(bookColumns).
		From("books b").
		Join("authors a ON a.id = b.author_id")

	if f.Title != nil {
		q = q.Where(sq.Eq{"b.title": *f.Title})
	}
	if f.TitleContains != nil {
		q = q.Where(sq.ILike{"b.title": containsPattern(*f.TitleContains)})
	}
	if f.AuthorID != nil {
		q = q.Where(sq.Eq{"b.author_id": *f.AuthorID})
	}
	if f.AuthorName != nil {
		q = q.Where(sq.Eq{"a.name": *f.AuthorName})
	}
	if f.AuthorNameContains != nil {
		q = q.Where(sq.ILike{"a.name": containsPattern(*f.AuthorNameContains)})
	}
	if f.LibraryID != nil {
		q = q.Where(sq.Expr("EXISTS (SELECT 1 FROM library_books lb WHERE lb.book_id = b.id AND lb.library_id = ?)", *f.LibraryID))
	}
	if f.Year != nil {
		q = q.Where(sq.Eq{"b.publication_year": *f.Year})
	}
	if f.YearGte != nil {
		q = q.Where(sq.GtOrEq{"b.publication_year": *f.YearGte})
	}
	if f.YearLte != nil {
		q = q.Where(sq.LtOrEq{"b.publication_year": *f.YearLte})
	}
	for _, term := range f.Search {
		p := containsPattern(term)
		q = q.Where(sq.Or{sq.ILike{"b.title": p}, sq.ILike{"a.name": p}})
	}
	if f.ByID {
		return q.OrderBy("b.id ASC")
	}
	return q.OrderBy(orderBy(f.Ordering)...)
}

func ListBooks(ctx context.Context, db database.Querier, f BookFilter) ([]model.Book, error) {
	query, args, err := bookQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListBooks: %w", err)
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListBooks: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBooks: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBooks: %w", err)
	}
	return books, nil
}

func GetBook(ctx context.Context, db database.Querier, id int) (*model.Book, error) {
	b, err := scanBook(db.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books b JOIN authors a ON a.id = b.author_id WHERE b.id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("GetBook: %w", err)
	}
	return b, nil
}

func CreateBook(ctx context.Context, db database.Querier, b *model.Book) (*model.Book, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO books (title, publication_year, author_id, isbn, description, added_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		b.Title,
		b.PublicationYear,
		b.AuthorID,
		b.ISBN,
		b.Description,
		b.AddedBy,
	)
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("CreateBook: %w", err)
	}
	return b, nil
}

func UpdateBook(ctx context.Context, db database.Querier, b *model.Book) error {
	err := db.QueryRow(ctx,
		`UPDATE books
		 SET title = $1, publication_year = $2, author_id = $3, isbn = $4,
		     description = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING updated_at`,
		b.Title,
		b.PublicationYear,
		b.AuthorID,
		b.ISBN,
		b.Description,
		b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateBook: %w", err)
	}
	return nil
}

func DeleteBook(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteBook: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeleteBook: %w", err)
	}
	return nil
}
