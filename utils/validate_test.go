package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title  string `json:"title" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

func TestValidate_Passes(t *testing.T) {
	assert.NoError(t, Validate(sampleRequest{Title: "1984", Rating: 4}))
}

func TestValidate_ReportsFields(t *testing.T) {
	err := Validate(sampleRequest{Rating: 9})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "Title")
	assert.Contains(t, err.Error(), "Rating")
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	var dst sampleRequest
	err := DecodeAndValidate(req, &dst)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestDecodeAndValidate_ValidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"1984","rating":5}`))
	var dst sampleRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "1984", dst.Title)
	assert.Equal(t, 5, dst.Rating)
}
