package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	cause := stderrors.New("permission denied")
	loadErr := DatasetLoad("failed to load sheet Plans", cause)

	wrapped := Wrapf(loadErr, "cannot load %s", "book.xlsx")
	assert.Equal(t, CodeDatasetLoad, GetCode(wrapped))
	assert.Equal(t, "cannot load book.xlsx: failed to load sheet Plans: permission denied", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(stderrors.New("boom"), "startup")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "startup: boom", wrapped.Error())

	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeConfigInvalid, GetCode(ConfigInvalid("bad port")))
	assert.Equal(t, CodeInvalidInput, GetCode(InvalidInput("bad format")))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Equal(t, "bad port", ConfigInvalid("bad port").Error())
}
