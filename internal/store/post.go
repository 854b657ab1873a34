package store

import (
	"context"
	"fmt"

	"library-hub/internal/database"
	"library-hub/internal/model"

	sq "github.com/Masterminds/squirrel"
)

// PostFilter Query 比對標題、內容或標籤名稱；TagSlug 限定標籤
type PostFilter struct {
	Query   string
	TagSlug string
}

const tagExists = `EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id AND `

func postWhere(q sq.SelectBuilder, f PostFilter) sq.SelectBuilder {
	if f.Query != "" {
		pat := containsPattern(f.Query)
		q = q.Where(sq.Or{
			sq.ILike{"p.title": pat},
			sq.ILike{"p.content": pat},
			sq.Expr(tagExists+"t.name ILIKE ?)", pat),
		})
	}
	if f.TagSlug != "" {
		q = q.Where(sq.Expr(tagExists+"t.slug = ?)", f.TagSlug))
	}
	return q
}

func scanPost(row scanner) (*model.Post, error) {
	p := &model.Post{Tags: []model.Tag{}}
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.PublishedDate, &p.AuthorID, &p.AuthorUsername); err != nil {
		return nil, err
	}
	return p, nil
}

const postColumns = "p.id, p.title, p.content, p.published_date, p.author_id, u.username"

func CountPosts(ctx context.Context, db database.Querier, f PostFilter) (int, error) {
	query, args, err := postWhere(psql.Select("COUNT(*)").From("posts p"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("CountPosts: %w", err)
	}
	var n int
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountPosts: %w", err)
	}
	return n, nil
}

// ListPosts 依發佈時間新到舊，並附上每篇的標籤
func ListPosts(ctx context.Context, db database.Querier, f PostFilter, limit, offset int) ([]model.Post, error) {
	q := psql.Select(postColumns).
		From("posts p").
		Join("users u ON u.id = p.author_id")
	q = postWhere(q, f).
		OrderBy("p.published_date DESC", "p.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListPosts: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListPosts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPosts: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPosts: %w", err)
	}
	rows.Close()

	if len(posts) == 0 {
		return posts, nil
	}
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	tags, err := ListTagsForPosts(ctx, db, ids)
	if err != nil {
		return nil, fmt.Errorf("ListPosts: %w", err)
	}
	for i := range posts {
		if t, ok := tags[posts[i].ID]; ok {
			posts[i].Tags = t
		}
	}
	return posts, nil
}

func GetPost(ctx context.Context, db database.Querier, id int) (*model.Post, error) {
	p, err := scanPost(db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("GetPost: %w", err)
	}
	tags, err := ListTagsForPosts(ctx, db, []int{id})
	if err != nil {
		return nil, fmt.Errorf("GetPost: %w", err)
	}
	if t, ok := tags[id]; ok {
		p.Tags = t
	}
	return p, nil
}

func CreatePost(ctx context.Context, db database.Querier, p *model.Post) (*model.Post, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO posts (title, content, author_id) VALUES ($1, $2, $3)
		 RETURNING id, published_date`,
		p.Title, p.Content, p.AuthorID,
	).Scan(&p.ID, &p.PublishedDate); err != nil {
		return nil, fmt.Errorf("CreatePost: %w", err)
	}
	return p, nil
}

func UpdatePost(ctx context.Context, db database.Querier, p *model.Post) error {
	tag, err := db.Exec(ctx,
		`UPDATE posts SET title = $1, content = $2 WHERE id = $3`,
		p.Title, p.Content, p.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdatePost: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("UpdatePost: %w", err)
	}
	return nil
}

func DeletePost(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeletePost: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeletePost: %w", err)
	}
	return nil
}

// SetPostTags 以 tags 取代文章原有的標籤，不存在的標籤會先建立；需在交易中呼叫
func SetPostTags(ctx context.Context, db database.Querier, postID int, tags []model.Tag) error {
	names := make([]string, len(tags))
	slugs := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
		slugs[i] = t.Slug
	}
	if len(tags) > 0 {
		if _, err := db.Exec(ctx,
			`INSERT INTO tags (name, slug)
			 SELECT name, slug FROM unnest($1::text[], $2::text[]) AS x(name, slug)
			 ON CONFLICT DO NOTHING`,
			names, slugs,
		); err != nil {
			return fmt.Errorf("SetPostTags: %w", err)
		}
	}
	if _, err := db.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("SetPostTags: %w", err)
	}
	if len(tags) == 0 {
		return nil
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO post_tags (post_id, tag_id)
		 SELECT $1, id FROM tags WHERE slug = ANY($2::text[])
		 ON CONFLICT DO NOTHING`,
		postID, slugs,
	); err != nil {
		return fmt.Errorf("SetPostTags: %w", err)
	}
	return nil
}

func ListTagsForPosts(ctx context.Context, db database.Querier, postIDs []int) (map[int][]model.Tag, error) {
	rows, err := db.Query(ctx,
		`SELECT pt.post_id, t.id, t.name, t.slug
		 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.post_id = ANY($1::int[])
		 ORDER BY t.name`,
		postIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("ListTagsForPosts: %w", err)
	}
	defer rows.Close()

	out := map[int][]model.Tag{}
	for rows.Next() {
		var postID int
		var t model.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("ListTagsForPosts: %w", err)
		}
		out[postID] = append(out[postID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTagsForPosts: %w", err)
	}
	return out, nil
}
