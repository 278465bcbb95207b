package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeDependency, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus)
		})
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor(Code("SOMETHING_ELSE")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "read sheet")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Contains(t, err.Error(), "boom")
}

func TestWrapNilBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeValidation, nil, "bad input")
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "VALIDATION_ERROR: bad input", err.Error())
}

func TestAsFindsWrappedError(t *testing.T) {
	inner := New(CodeNotFound, "item missing").WithDetails(map[string]string{"id": "x"})
	outer := fmt.Errorf("delete item: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
	assert.Equal(t, map[string]string{"id": "x"}, typed.Details())
	assert.True(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(outer, CodeValidation))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeNotFound))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Equal(t, "", err.Message())
	assert.Nil(t, err.WithDetails("x"))
}
