package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Content   string `json:"content" validate:"required,min=1,max=5000"`
}

func TestValidate_Valid(t *testing.T) {
	in := reviewInput{ProductID: "prod_1", Rating: 4, Content: "solid product"}
	assert.NoError(t, Validate(in))
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(reviewInput{Rating: 4, Content: "x"})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "is required", valErr.Fields()["product_id"])
}

func TestValidate_FieldNamesUseJSONTags(t *testing.T) {
	err := Validate(reviewInput{ProductID: "prod_1", Rating: 9, Content: "x"})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Contains(t, fields, "rating")
	assert.NotContains(t, fields, "Rating")
	assert.Equal(t, "must be less than or equal to 5", fields["rating"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(reviewInput{})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "product_id")
	assert.Contains(t, msg, "rating")
	assert.Contains(t, msg, "content")
}

func TestDecodeAndValidate_Valid(t *testing.T) {
	body := `{"product_id":"prod_1","rating":5,"content":"great"}`
	req := httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(body))

	var in reviewInput
	require.NoError(t, DecodeAndValidate(req, &in))
	assert.Equal(t, "prod_1", in.ProductID)
	assert.Equal(t, 5, in.Rating)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader("{not json"))

	var in reviewInput
	err := DecodeAndValidate(req, &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_InvalidPayload(t *testing.T) {
	body := `{"product_id":"prod_1","rating":0,"content":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(body))

	var in reviewInput
	err := DecodeAndValidate(req, &in)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
}
