package service

import (
	"strings"
	"unicode"

	"library-hub/internal/model"

	"golang.org/x/text/unicode/norm"
)

// Slugify 轉成小寫 ASCII，以連字號連接單字，例如 "Go Lang!" -> "go-lang"
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case r == '_' && b.Len() > 0:
			b.WriteRune(r)
			dash = false
		case unicode.IsSpace(r) || r == '-':
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-_")
}

// BuildTags 由標籤名稱產生 model.Tag，無法轉成 ASCII 的名稱以小寫原文作為 slug
func BuildTags(names []string) []model.Tag {
	seen := map[string]bool{}
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		slug := Slugify(name)
		if slug == "" {
			slug = strings.Join(strings.Fields(strings.ToLower(name)), "-")
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		tags = append(tags, model.Tag{Name: name, Slug: slug})
	}
	return tags
}
