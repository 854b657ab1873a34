package service

import (
	"fmt"
	"strings"
	"time"

	"library-hub/internal/apperrors"
	"library-hub/internal/model"
)

const maxTitleLength = 200

// ValidatePublicationYear 出版年份不可晚於今年
func ValidatePublicationYear(year int, now time.Time) error {
	if year > now.Year() {
		return apperrors.FieldError("publication_year", futureYearMessage(now.Year()))
	}
	return nil
}

func futureYearMessage(year int) string {
	return fmt.Sprintf("Publication year cannot be in the future (%d).", year)
}

// ValidateBook 檢查書籍欄位，authorExists 由呼叫端查詢 authors 表後提供
func ValidateBook(b model.Book, authorExists bool, now time.Time) error {
	v := &apperrors.ValidationError{}
	title := strings.TrimSpace(b.Title)
	switch {
	case title == "":
		v.Add("title", "This field is required.")
	case len([]rune(title)) > maxTitleLength:
		v.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
	}
	if b.PublicationYear > now.Year() {
		v.Add("publication_year", futureYearMessage(now.Year()))
	}
	if b.AuthorID <= 0 {
		v.Add("author", "This field is required.")
	} else if !authorExists {
		v.Add("author", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", b.AuthorID))
	}
	return v.OrNil()
}
