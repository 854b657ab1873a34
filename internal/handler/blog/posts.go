package blog

import (
	"net/http"
	"strings"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/middleware"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	countPosts    = store.CountPosts
	listPosts     = store.ListPosts
	getPost       = store.GetPost
	createPost    = store.CreatePost
	updatePost    = store.UpdatePost
	deletePost    = store.DeletePost
	setPostTags   = store.SetPostTags
	listComments  = store.ListComments
	getComment    = store.GetComment
	createComment = store.CreateComment
	updateComment = store.UpdateComment
	deleteComment = store.DeleteComment
	inTx          = database.InTx
)

func toTagResponses(tags []model.Tag) []api.TagResponse {
	out := make([]api.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, api.TagResponse{Name: t.Name, Slug: t.Slug})
	}
	return out
}

func toPostResponse(p model.Post) api.PostResponse {
	return api.PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		PublishedDate: p.PublishedDate,
		Author:        p.AuthorUsername,
		AuthorID:      p.AuthorID,
		Tags:          toTagResponses(p.Tags),
	}
}

func toCommentResponse(c model.Comment) api.CommentResponse {
	return api.CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.AuthorUsername,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func bind[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, apperrors.FieldError("non_field_errors", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return req, apperrors.FromValidator(err)
	}
	return req, nil
}

func listPage(c echo.Context, db database.DB, f store.PostFilter) error {
	ctx := c.Request().Context()
	count, err := countPosts(ctx, db, f)
	if err != nil {
		return apperrors.Respond(c, err)
	}
	page, err := service.Paginate(count, service.PostsPerPage, c.QueryParam("page"))
	if err != nil {
		return apperrors.Respond(c, err)
	}
	posts, err := listPosts(ctx, db, f, page.Limit, page.Offset)
	if err != nil {
		return apperrors.Respond(c, err)
	}
	results := make([]api.PostResponse, 0, len(posts))
	for _, p := range posts {
		results = append(results, toPostResponse(p))
	}
	return c.JSON(http.StatusOK, api.PostPageResponse{
		Count:    count,
		Page:     page.Page,
		NumPages: page.NumPages,
		Results:  results,
	})
}

// @Summary     List posts
// @Description 新到舊，每頁 5 筆；q 比對標題、內容或標籤
// @Tags        blog
// @Produce     json
// @Param       q    query    string false "搜尋字串"
// @Param       page query    string false "頁碼或 last"
// @Success     200  {object} api.PostPageResponse
// @Failure     404  {object} api.ErrorResponse
// @Router      /posts [get]
func ListPostsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		return listPage(c, db, store.PostFilter{Query: strings.TrimSpace(c.QueryParam("q"))})
	}
}

// @Summary     List posts by tag
// @Tags        blog
// @Produce     json
// @Param       tag_slug path     string true  "標籤 slug"
// @Param       page     query    string false "頁碼或 last"
// @Success     200      {object} api.PostPageResponse
// @Failure     404      {object} api.ErrorResponse
// @Router      /posts/tags/{tag_slug} [get]
func ListPostsByTagHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		return listPage(c, db, store.PostFilter{TagSlug: c.Param("tag_slug")})
	}
}

// @Summary     Get a post
// @Description 附帶標籤與由舊到新的留言
// @Tags        blog
// @Produce     json
// @Param       id  path     int true "文章 ID"
// @Success     200 {object} api.PostResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /posts/{id} [get]
func GetPostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		ctx := c.Request().Context()
		p, err := getPost(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		comments, err := listComments(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		resp := toPostResponse(*p)
		resp.Comments = make([]api.CommentResponse, 0, len(comments))
		for _, cm := range comments {
			resp.Comments = append(resp.Comments, toCommentResponse(cm))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Create a post
// @Tags        blog
// @Accept      json
// @Produce     json
// @Param       body body     api.PostRequest true "文章"
// @Success     201  {object} api.PostResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts [post]
func CreatePostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bind[api.PostRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		claims := middleware.Claims(c)
		if claims == nil {
			return apperrors.Respond(c, apperrors.ErrUnauthorized)
		}

		p := &model.Post{Title: req.Title, Content: req.Content, AuthorID: claims.UserID, AuthorUsername: claims.Username}
		tags := service.BuildTags(req.Tags)
		ctx := c.Request().Context()
		err = inTx(ctx, db, func(q database.Querier) error {
			if _, err := createPost(ctx, q, p); err != nil {
				return err
			}
			return setPostTags(ctx, q, p.ID, tags)
		})
		if err != nil {
			return apperrors.Respond(c, err)
		}
		p.Tags = tags
		return c.JSON(http.StatusCreated, toPostResponse(*p))
	}
}

// ownPost 取得文章並確認目前使用者為作者
func ownPost(c echo.Context, db database.DB) (*model.Post, error) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p, err := getPost(c.Request().Context(), db, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != handler.CurrentUserID(c) {
		return nil, apperrors.ErrPermissionDenied
	}
	return p, nil
}

// UpdatePostHandler 省略 tags 時保留原有標籤
// @Summary     Update a post
// @Tags        blog
// @Accept      json
// @Produce     json
// @Param       id   path     int             true "文章 ID"
// @Param       body body     api.PostRequest true "文章"
// @Success     200  {object} api.PostResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts/{id} [put]
func UpdatePostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := ownPost(c, db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		req, err := bind[api.PostRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		p.Title, p.Content = req.Title, req.Content

		ctx := c.Request().Context()
		err = inTx(ctx, db, func(q database.Querier) error {
			if err := updatePost(ctx, q, p); err != nil {
				return err
			}
			if req.Tags == nil {
				return nil
			}
			p.Tags = service.BuildTags(req.Tags)
			return setPostTags(ctx, q, p.ID, p.Tags)
		})
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toPostResponse(*p))
	}
}

// @Summary     Delete a post
// @Tags        blog
// @Param       id  path int true "文章 ID"
// @Success     204 "No Content"
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts/{id} [delete]
func DeletePostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := ownPost(c, db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := deletePost(c.Request().Context(), db, p.ID); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
