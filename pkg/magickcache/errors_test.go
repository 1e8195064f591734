package magickcache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesKindAndSubject(t *testing.T) {
	err := newErr(KindNotFound, "GetBlob", "p/blob/x", nil)
	require.Contains(t, err.Error(), "NotFound")
	require.Contains(t, err.Error(), "GetBlob")
	require.Contains(t, err.Error(), "p/blob/x")
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := newErr(KindIO, "PutBlob", "p/blob/x", cause)
	require.ErrorIs(t, err, cause)
}

func TestExceptionSlotOverwritesPreviousError(t *testing.T) {
	var slot exceptionSlot
	first := newErr(KindNotFound, "Get", "a", nil)
	second := newErr(KindIO, "Put", "b", nil)
	slot.set(first)
	slot.set(second)
	require.Equal(t, second, slot.get())
}
