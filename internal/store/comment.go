package store

import (
	"context"
	"fmt"

	"library-hub/internal/database"
	"library-hub/internal/model"
)

const commentSelect = `SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at, c.updated_at
	FROM comments c JOIN users u ON u.id = c.author_id`

func scanComment(row scanner) (*model.Comment, error) {
	c := &model.Comment{}
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments 依建立時間由舊到新
func ListComments(ctx context.Context, db database.Querier, postID int) ([]model.Comment, error) {
	rows, err := db.Query(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("ListComments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListComments: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListComments: %w", err)
	}
	return comments, nil
}

func GetComment(ctx context.Context, db database.Querier, id int) (*model.Comment, error) {
	c, err := scanComment(db.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("GetComment: %w", err)
	}
	return c, nil
}

func CreateComment(ctx context.Context, db database.Querier, c *model.Comment) (*model.Comment, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO comments (post_id, author_id, content) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		c.PostID, c.AuthorID, c.Content,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("CreateComment: %w", err)
	}
	return c, nil
}

func UpdateComment(ctx context.Context, db database.Querier, c *model.Comment) error {
	if err := db.QueryRow(ctx,
		`UPDATE comments SET content = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
		c.Content, c.ID,
	).Scan(&c.UpdatedAt); err != nil {
		return fmt.Errorf("UpdateComment: %w", err)
	}
	return nil
}

func DeleteComment(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteComment: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeleteComment: %w", err)
	}
	return nil
}
