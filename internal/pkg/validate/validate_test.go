package validate

import (
	"strings"
	"testing"

	"github.com/go-feedback-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(domain.SubmissionInput{ProductName: "Widget", Comment: "Great app!"}))
	assert.NoError(t, Struct(domain.SubmissionInput{ProductName: "Widget", AttachmentRef: "uploads/x/log.zip"}))
}

func TestStruct_ReportsJSONFieldName(t *testing.T) {
	err := Struct(domain.SubmissionInput{Comment: "hi"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "product_name", ve.Field)
	assert.Equal(t, "required", ve.Rule)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStruct_CommentOrAttachmentRequired(t *testing.T) {
	err := Struct(domain.SubmissionInput{ProductName: "Widget"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "comment", ve.Field)
	assert.Equal(t, "required_without", ve.Rule)
}

func TestStruct_ProductNameTooLong(t *testing.T) {
	err := Struct(domain.SubmissionInput{ProductName: strings.Repeat("w", 129), Comment: "hi"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "product_name", ve.Field)
	assert.Equal(t, "max", ve.Rule)
}
