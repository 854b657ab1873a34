package router

import (
	"net/http"

	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/handler/auth"
	"library-hub/internal/handler/authors"
	"library-hub/internal/handler/blog"
	"library-hub/internal/handler/books"
	"library-hub/internal/handler/groups"
	"library-hub/internal/handler/libraries"
	"library-hub/internal/handler/pages"
	"library-hub/internal/handler/users"
	"library-hub/internal/middleware"
	"library-hub/internal/model"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CSRFField HTML 表單中 CSRF token 的欄位名稱
const CSRFField = "csrfmiddlewaretoken"

// csrf 僅套用在 HTML 頁面，JSON API 以 Bearer token 驗證
func csrf() echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "form:" + CSRFField,
		CookieName:     "csrftoken",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, db database.DB, rdb cache.Cache, opts handler.Options) {
	if opts.MediaRoot != "" {
		e.Static("/media", opts.MediaRoot)
	}

	api := e.Group("/api")
	setupAPI(api, db, rdb, opts)

	setupAccounts(e.Group("/accounts", csrf()), db, rdb, opts)
	setupBookshelf(e.Group("/bookshelf", csrf(), middleware.LoginRequired(db, rdb)), db, rdb)
	setupRelationship(e.Group("/relationship", csrf()), db, rdb)
}

func setupAPI(api *echo.Group, db database.DB, rdb cache.Cache, opts handler.Options) {
	requireAuth := middleware.RequireAuth(db, rdb)

	// 健康檢查
	api.GET("/ping", handler.PingHandler(db, rdb))

	// JWT 登入、換發與登出
	apiAuth := api.Group("/auth")
	apiAuth.POST("/register", auth.RegisterHandler(db))
	apiAuth.POST("/login", auth.LoginHandler(db, rdb, opts))
	apiAuth.POST("/refresh", auth.RefreshHandler(db, rdb, opts))
	apiAuth.POST("/logout", auth.LogoutHandler(rdb), requireAuth)

	// 取得、更新、刪除當前使用者個人資料
	apiUsersMe := api.Group("/users/me", requireAuth)
	apiUsersMe.GET("", users.GetMyUserHandler(db))
	apiUsersMe.PUT("", users.UpdateMyUserHandler(db))
	apiUsersMe.DELETE("", users.DeleteMyUserHandler(db, rdb, opts))
	apiUsersMe.PATCH("/password", users.UpdateMyUserPasswordHandler(db))
	apiUsersMe.PUT("/photo", users.UpdateMyPhotoHandler(db, opts))

	// 超級使用者專屬 Users CRUD
	apiUsers := api.Group("/users", middleware.RequireSuperuser(db, rdb))
	apiUsers.POST("", users.CreateUserHandler(db))
	apiUsers.GET("", users.ListUsersHandler(db))
	apiUsers.GET("/:user_id", users.GetUserHandler(db))
	apiUsers.PUT("/:user_id", users.UpdateUserHandler(db))
	apiUsers.DELETE("/:user_id", users.DeleteUserHandler(db))
	apiUsers.PUT("/:user_id/role", users.UpdateUserRoleHandler(db))
	apiUsers.POST("/:user_id/reset_password", users.ResetUserPasswordHandler(db))
	apiUsers.POST("/:user_id/groups/:group", users.AddUserGroupHandler(db))
	apiUsers.DELETE("/:user_id/groups/:group", users.RemoveUserGroupHandler(db))

	apiGroups := api.Group("/groups", middleware.RequireSuperuser(db, rdb))
	apiGroups.GET("", groups.ListGroupsHandler(db))
	apiGroups.POST("/setup", groups.SetupGroupsHandler(db))
	apiGroups.GET("/permissions", groups.ListPermissionsHandler(db))

	// 作者：讀取公開，寫入需登入
	apiAuthors := api.Group("/authors")
	apiAuthors.GET("", authors.ListAuthorsHandler(db))
	apiAuthors.GET("/:id", authors.GetAuthorHandler(db))
	apiAuthors.POST("", authors.CreateAuthorHandler(db, rdb), requireAuth)
	apiAuthors.PUT("/:id", authors.UpdateAuthorHandler(db, rdb), requireAuth)
	apiAuthors.DELETE("/:id", authors.DeleteAuthorHandler(db, rdb), requireAuth)

	// 書籍：匿名寫入回 403
	registerBooks(api.Group("/books", middleware.ReadOnlyOrAuth(db, rdb)), db, rdb, true)
	registerBooks(api.Group("/books_all", middleware.ReadOnlyOrAuth(db, rdb)), db, rdb, false)
	api.GET("/books_list", books.SimpleBookListHandler(db))

	apiLibraries := api.Group("/libraries", requireAuth)
	apiLibraries.GET("", libraries.ListLibrariesHandler(db), middleware.RequirePerm(db, "library.can_view"))
	apiLibraries.GET("/:id", libraries.GetLibraryHandler(db), middleware.RequirePerm(db, "library.can_view"))
	apiLibraries.POST("", libraries.CreateLibraryHandler(db), middleware.RequirePerm(db, "library.can_create"))
	apiLibraries.PUT("/:id", libraries.UpdateLibraryHandler(db), middleware.RequirePerm(db, "library.can_edit"))
	apiLibraries.DELETE("/:id", libraries.DeleteLibraryHandler(db), middleware.RequirePerm(db, "library.can_delete"))
	apiLibraries.POST("/:id/books/:book_id", libraries.AddBookHandler(db), middleware.RequirePerm(db, "library.can_edit"))
	apiLibraries.DELETE("/:id/books/:book_id", libraries.RemoveBookHandler(db), middleware.RequirePerm(db, "library.can_edit"))
	apiLibraries.PUT("/:id/librarian", libraries.SetLibrarianHandler(db), middleware.RequirePerm(db, "library.can_edit"))

	// 部落格
	apiPosts := api.Group("/posts")
	apiPosts.GET("", blog.ListPostsHandler(db))
	apiPosts.GET("/tags/:tag_slug", blog.ListPostsByTagHandler(db))
	apiPosts.GET("/:id", blog.GetPostHandler(db))
	apiPosts.POST("", blog.CreatePostHandler(db), requireAuth)
	apiPosts.PUT("/:id", blog.UpdatePostHandler(db), requireAuth)
	apiPosts.DELETE("/:id", blog.DeletePostHandler(db), requireAuth)
	apiPosts.POST("/:id/comments", blog.CreateCommentHandler(db), requireAuth)

	apiComments := api.Group("/comments", requireAuth)
	apiComments.PUT("/:id", blog.UpdateCommentHandler(db))
	apiComments.DELETE("/:id", blog.DeleteCommentHandler(db))
}

// registerBooks aliases 為 true 時額外註冊 /create、/update/:id、/delete/:id
func registerBooks(g *echo.Group, db database.DB, rdb cache.Cache, aliases bool) {
	g.GET("", books.ListBooksHandler(db, rdb))
	g.GET("/:id", books.GetBookHandler(db))
	g.POST("", books.CreateBookHandler(db, rdb))
	g.PUT("/:id", books.UpdateBookHandler(db, rdb, false))
	g.PATCH("/:id", books.UpdateBookHandler(db, rdb, true))
	g.DELETE("/:id", books.DeleteBookHandler(db, rdb))
	if !aliases {
		return
	}
	g.POST("/create", books.CreateBookHandler(db, rdb))
	g.PUT("/update/:id", books.UpdateBookHandler(db, rdb, false))
	g.PATCH("/update/:id", books.UpdateBookHandler(db, rdb, true))
	g.DELETE("/delete/:id", books.DeleteBookHandler(db, rdb))
}

func setupAccounts(g *echo.Group, db database.DB, rdb cache.Cache, opts handler.Options) {
	optional := middleware.OptionalAuth(db, rdb)
	loginRequired := middleware.LoginRequired(db, rdb)

	g.GET("/login", pages.LoginPageHandler(), optional)
	g.POST("/login", pages.LoginSubmitHandler(db, opts))
	g.POST("/logout", pages.LogoutHandler(rdb), optional)
	g.GET("/register", pages.RegisterPageHandler(), optional)
	g.POST("/register", pages.RegisterSubmitHandler(db, opts))

	g.GET("/documents", pages.DocumentsHandler(db), loginRequired, middleware.RequirePerm(db, "document.can_view"))
	g.POST("/documents", pages.CreateDocumentHandler(db), loginRequired, middleware.RequirePerm(db, "document.can_create"))
	g.POST("/documents/:id/delete", pages.DeleteDocumentHandler(db), loginRequired, middleware.RequirePerm(db, "document.can_delete"))
}

func setupBookshelf(g *echo.Group, db database.DB, rdb cache.Cache) {
	canView := middleware.RequirePerm(db, "book.can_view")
	canCreate := middleware.RequirePerm(db, "book.can_create")
	canEdit := middleware.RequirePerm(db, "book.can_edit")
	canDelete := middleware.RequirePerm(db, "book.can_delete")

	g.GET("/books", pages.BookListHandler(db), canView)
	g.GET("/books/create", pages.BookCreatePageHandler(), canCreate)
	g.POST("/books/create", pages.BookCreateHandler(db, rdb), canCreate)
	g.GET("/books/:id", pages.BookDetailHandler(db), canView)
	g.GET("/books/edit/:id", pages.BookEditPageHandler(db), canEdit)
	g.POST("/books/edit/:id", pages.BookEditHandler(db, rdb), canEdit)
	g.GET("/books/delete/:id", pages.BookDeletePageHandler(db), canDelete)
	g.POST("/books/delete/:id", pages.BookDeleteHandler(db, rdb), canDelete)

	g.GET("/form/submit", pages.FormExamplePageHandler())
	g.POST("/form/submit", pages.FormExampleHandler())
}

func setupRelationship(g *echo.Group, db database.DB, rdb cache.Cache) {
	optional := middleware.OptionalAuth(db, rdb)
	loginRequired := middleware.LoginRequired(db, rdb)

	g.GET("/books", pages.ListBooksPageHandler(db), optional)
	g.GET("/library/:id", pages.LibraryDetailPageHandler(db), optional)

	g.GET("/admin-panel", pages.RolePageHandler("admin_view.html", "Admin panel"), middleware.RequireRole(db, rdb, model.RoleAdmin))
	g.GET("/librarian-dashboard", pages.RolePageHandler("librarian_view.html", "Librarian dashboard"), middleware.RequireRole(db, rdb, model.RoleLibrarian))
	g.GET("/member-area", pages.RolePageHandler("member_view.html", "Member area"), middleware.RequireRole(db, rdb, model.RoleMember))

	g.GET("/add_book", pages.AddBookPageHandler(), loginRequired, middleware.RequirePerm(db, "book.can_create"))
	g.GET("/edit_book/:id", pages.EditBookPageHandler(db), loginRequired, middleware.RequirePerm(db, "book.can_edit"))
	g.GET("/book/delete/:id", pages.DeleteBookPageHandler(db), loginRequired, middleware.RequirePerm(db, "book.can_delete"))
}
