package dErrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"steeple/pkg/platform/sentinel"
)

func TestHasCode(t *testing.T) {
	inner := Wrap(sentinel.ErrNotFound, CodeNotFound, "person missing")
	outer := Wrap(inner, CodeInternal, "search failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound), "codes deeper in the chain are visible")
	assert.False(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestSentinelCausesSurvive(t *testing.T) {
	err := Wrap(sentinel.ErrNotFound, CodeNotFound, "person missing")
	assert.True(t, Is(err, sentinel.ErrNotFound))
}

func TestCodeOfAndMessage(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad input")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")), "uncoded errors default to internal")
	assert.Equal(t, "bad input", Message(New(CodeValidation, "bad input")))
	assert.Empty(t, Message(nil))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeInvariantViolation: http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(New(code, "x")), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(errors.New("plain")))
}
