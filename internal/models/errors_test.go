package models

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	err := errors.Wrap(ErrDuplicateBookmark.WithCause(errors.New("UNIQUE constraint failed")), "create bookmark")

	assert.True(t, errors.Is(err, ErrDuplicateBookmark))
	assert.False(t, errors.Is(err, ErrDuplicateName))
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindDuplicateBookmark, kind)

	_, ok = KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestFieldError(t *testing.T) {
	err := FieldError("name", "This field is required.")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, map[string]string{"name": "This field is required."}, err.Fields)
}

func TestErrorf(t *testing.T) {
	err := Errorf(KindNotFound, "folder %d", 7)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "folder 7", err.Error())
}
