package store

import (
	"context"
	"fmt"

	"library-hub/internal/database"
	"library-hub/internal/model"
)

func ListDocuments(ctx context.Context, db database.Querier) ([]model.Document, error) {
	rows, err := db.Query(ctx,
		`SELECT id, title, content, owner_id, created_at FROM documents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.OwnerID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListDocuments: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	return docs, nil
}

func CreateDocument(ctx context.Context, db database.Querier, d *model.Document) (*model.Document, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO documents (title, content, owner_id) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		d.Title, d.Content, d.OwnerID,
	).Scan(&d.ID, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateDocument: %w", err)
	}
	return d, nil
}

func DeleteDocument(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteDocument: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeleteDocument: %w", err)
	}
	return nil
}
