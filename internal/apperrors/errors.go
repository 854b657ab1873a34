package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"library-hub/internal/api"
	"library-hub/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("authentication credentials were not provided")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrConflict         = errors.New("already exists")
)

// ValidationError 以欄位為鍵收集錯誤訊息，對應 400 與 fields 回應
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add 附加一則欄位錯誤
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil 沒有任何欄位錯誤時回傳 nil
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FieldError 建立只有單一欄位的 ValidationError
func FieldError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// FromValidator 將 go-playground/validator 的錯誤轉成欄位訊息；
// 其他錯誤放在 non_field_errors
func FromValidator(err error) *ValidationError {
	out := &ValidationError{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("non_field_errors", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), validation.Message(fe))
	}
	return out
}

// IsNotFound 判斷 store 回傳的查無資料錯誤
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound)
}

// IsUniqueViolation 判斷 PostgreSQL 23505
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation 判斷 PostgreSQL 23503
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// fkDetail 比對 PostgreSQL 23503 的 Detail，例如
// Key (author_id)=(5) is not present in table "authors".
var fkDetail = regexp.MustCompile(`^Key \((\w+)\)=\(([^)]*)\) is not present in table "(\w+)"`)

// foreignKeyError 將 23503 轉成對應欄位的 ValidationError；
// 參照的是 users 表時代表請求者已不存在，回傳 ErrUnauthorized
func foreignKeyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	m := fkDetail.FindStringSubmatch(pgErr.Detail)
	if m == nil {
		return FieldError("non_field_errors", "Referenced object does not exist.")
	}
	if m[3] == "users" {
		return ErrUnauthorized
	}
	return FieldError(strings.TrimSuffix(m[1], "_id"), fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", m[2]))
}

// Status 將錯誤對應到 HTTP 狀態碼與回應內容
func Status(err error) (int, api.ErrorResponse) {
	if IsForeignKeyViolation(err) {
		err = foreignKeyError(err)
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, api.ErrorResponse{Message: "validation failed", Fields: verr.Fields}
	case IsNotFound(err):
		return http.StatusNotFound, api.ErrorResponse{Message: "not found"}
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden, api.ErrorResponse{Message: "you do not have permission to perform this action"}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, api.ErrorResponse{Message: ErrUnauthorized.Error()}
	case errors.Is(err, ErrInvalidPassword):
		return http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"}
	case errors.Is(err, ErrConflict), IsUniqueViolation(err):
		return http.StatusConflict, api.ErrorResponse{Message: "resource already exists"}
	default:
		return http.StatusInternalServerError, api.ErrorResponse{Message: "internal server error"}
	}
}
