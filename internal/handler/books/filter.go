package books

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"library-hub/internal/apperrors"
	"library-hub/internal/store"
)

// intParams 整數型查詢參數與對應的 BookFilter 欄位
var intParams = []struct {
	key string
	set func(f *store.BookFilter, v int)
}{
	{"publication_year", func(f *store.BookFilter, v int) { f.Year = &v }},
	{"publication_year__gte", func(f *store.BookFilter, v int) { f.YearGte = &v }},
	{"publication_year_gte", func(f *store.BookFilter, v int) { f.YearGte = &v }},
	{"publication_year__lte", func(f *store.BookFilter, v int) { f.YearLte = &v }},
	{"author", func(f *store.BookFilter, v int) { f.AuthorID = &v }},
}

var stringParams = []struct {
	key string
	set func(f *store.BookFilter, v string)
}{
	{"title", func(f *store.BookFilter, v string) { f.Title = &v }},
	{"title__icontains", func(f *store.BookFilter, v string) { f.TitleContains = &v }},
	{"author__name", func(f *store.BookFilter, v string) { f.AuthorName = &v }},
	{"author__name__icontains", func(f *store.BookFilter, v string) { f.AuthorNameContains = &v }},
}

// ParseBookFilter 將查詢字串轉成 store.BookFilter，空值視為未提供
func ParseBookFilter(q url.Values) (store.BookFilter, error) {
	var f store.BookFilter
	verr := &apperrors.ValidationError{}

	for _, p := range stringParams {
		if v := q.Get(p.key); v != "" {
			p.set(&f, v)
		}
	}
	for _, p := range intParams {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add(p.key, "Enter a number.")
			continue
		}
		p.set(&f, n)
	}
	if err := verr.OrNil(); err != nil {
		return f, err
	}

	f.Search = splitTerms(q.Get("search"))
	if o := q.Get("ordering"); o != "" {
		f.Ordering = strings.Split(o, ",")
	}
	return f, nil
}

// splitTerms 以空白或逗號切分搜尋字串
func splitTerms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}
