// Package docs 由 swag init 產生，重新產生請執行 swag init -g cmd/service/service.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "註冊新使用者",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "登入並取得 access/refresh token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "以 refresh token 換發 token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["auth"],
                "summary": "登出並撤銷 token",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "列出書籍（支援 search、ordering 與欄位篩選）",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "新增書籍",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "取得單一書籍",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["books"],
                "summary": "更新書籍",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "patch": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["books"],
                "summary": "部分更新書籍",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["books"],
                "summary": "刪除書籍",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/authors": {
            "get": {"tags": ["authors"], "summary": "列出作者與其書籍", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["authors"], "summary": "新增作者", "responses": {"201": {"description": "Created"}}}
        },
        "/libraries": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["libraries"], "summary": "列出圖書館", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["libraries"], "summary": "新增圖書館", "responses": {"201": {"description": "Created"}}}
        },
        "/posts": {
            "get": {"tags": ["blog"], "summary": "分頁列出文章（q 搜尋）", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["blog"], "summary": "新增文章", "responses": {"201": {"description": "Created"}, "401": {"description": "Unauthorized"}}}
        },
        "/posts/{id}/comments": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["blog"],
                "summary": "新增留言",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}}
            }
        },
        "/users/me": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["users"], "summary": "取得目前使用者與個人資料", "responses": {"200": {"description": "OK"}}}
        },
        "/users/me/photo": {
            "put": {"security": [{"ApiKeyAuth": []}], "consumes": ["multipart/form-data"], "tags": ["users"], "summary": "上傳大頭照", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Library Hub API",
	Description:      "書籍、作者、圖書館、部落格與帳號管理的後端 API 文件",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
