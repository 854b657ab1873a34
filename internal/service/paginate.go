package service

import (
	"strconv"

	"library-hub/internal/apperrors"
)

// PostsPerPage 部落格列表每頁筆數
const PostsPerPage = 5

// Pagination 描述單頁的位置
type Pagination struct {
	Page     int
	NumPages int
	Offset   int
	Limit    int
}

// Paginate 解析 page 參數：空字串為第一頁，"last" 為最後一頁；
// 非整數或超出範圍回傳 ErrNotFound。沒有資料時仍有一頁。
func Paginate(count, perPage int, page string) (Pagination, error) {
	numPages := 1
	if count > 0 {
		numPages = (count + perPage - 1) / perPage
	}

	n := 1
	switch page {
	case "":
	case "last":
		n = numPages
	default:
		v, err := strconv.Atoi(page)
		if err != nil {
			return Pagination{}, apperrors.ErrNotFound
		}
		n = v
	}
	if n < 1 || n > numPages {
		return Pagination{}, apperrors.ErrNotFound
	}
	return Pagination{Page: n, NumPages: numPages, Offset: (n - 1) * perPage, Limit: perPage}, nil
}
