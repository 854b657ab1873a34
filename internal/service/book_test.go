package service

import (
	"strings"
	"testing"
	"time"

	"library-hub/internal/apperrors"
	"library-hub/internal/model"

	"github.com/stretchr/testify/require"
)

func TestValidatePublicationYear(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ValidatePublicationYear(2024, now))
	require.NoError(t, ValidatePublicationYear(1900, now))

	err := ValidatePublicationYear(2025, now)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"Publication year cannot be in the future (2024)."}, verr.Fields["publication_year"])
}

func TestValidateBook(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ValidateBook(model.Book{Title: "Dune", PublicationYear: 1965, AuthorID: 1}, true, now))

	err := ValidateBook(model.Book{Title: " ", PublicationYear: 2030}, false, now)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"This field is required."}, verr.Fields["title"])
	require.Equal(t, []string{"This field is required."}, verr.Fields["author"])
	require.Equal(t, []string{"Publication year cannot be in the future (2024)."}, verr.Fields["publication_year"])

	err = ValidateBook(model.Book{Title: strings.Repeat("x", 201), AuthorID: 9}, false, now)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"Ensure this field has no more than 200 characters."}, verr.Fields["title"])
	require.Equal(t, []string{`Invalid pk "9" - object does not exist.`}, verr.Fields["author"])
}
