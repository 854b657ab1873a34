package api

// swagger:model api.AuthorRequest
type AuthorRequest struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=100" example:"George Orwell"`
}

// swagger:model api.AuthorResponse
type AuthorResponse struct {
	ID    int            `json:"id" example:"1"`
	Name  string         `json:"name" example:"George Orwell"`
	Books []BookResponse `json:"books"`
}

// BookRequest 的指標欄位讓 PATCH 能區分「未提供」與零值
// swagger:model api.BookRequest
type BookRequest struct {
	Title           *string `json:"title" form:"title" validate:"omitempty,max=200" example:"1984"`
	PublicationYear *int    `json:"publication_year" form:"publication_year" example:"1949"`
	Author          *int    `json:"author" form:"author" example:"1"`
}

// swagger:model api.BookResponse
type BookResponse struct {
	ID              int    `json:"id" example:"1"`
	Title           string `json:"title" example:"1984"`
	PublicationYear int    `json:"publication_year" example:"1949"`
	Author          int    `json:"author" example:"1"`
}

// SimpleBookResponse 作者以名稱呈現
// swagger:model api.SimpleBookResponse
type SimpleBookResponse struct {
	ID     int    `json:"id" example:"1"`
	Title  string `json:"title" example:"1984"`
	Author string `json:"author" example:"George Orwell"`
}

// swagger:model api.LibraryRequest
type LibraryRequest struct {
	Name     string `json:"name" form:"name" validate:"required,notblank,max=200" example:"Central Library"`
	Location string `json:"location" form:"location" validate:"max=200" example:"Main St."`
}

// swagger:model api.LibrarianRequest
type LibrarianRequest struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=100" example:"Jane"`
}

// swagger:model api.LibrarianResponse
type LibrarianResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name" example:"Jane"`
	LibraryID int    `json:"library"`
}

// swagger:model api.LibraryResponse
type LibraryResponse struct {
	ID        int                `json:"id"`
	Name      string             `json:"name" example:"Central Library"`
	Location  string             `json:"location"`
	Books     []BookResponse     `json:"books"`
	Librarian *LibrarianResponse `json:"librarian"`
}

// LibrarySummaryResponse 列表只含基本欄位
// swagger:model api.LibrarySummaryResponse
type LibrarySummaryResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name" example:"Central Library"`
	Location string `json:"location"`
}
