package errs_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-bootstrap/framework/errs"
)

func TestE_IsMatchesSentinelByCode(t *testing.T) {
	err := errs.New(errs.CodeInstantiation, "bootstrap.create", "type %q has no constructor", "xml")

	assert.True(t, errors.Is(err, errs.ErrInstantiation))
	assert.False(t, errors.Is(err, errs.ErrConfigLoad))
	assert.Equal(t, `bootstrap.create: type "xml" has no constructor`, err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	err := errs.Wrap(errs.CodeConfigLoad, "container.refresh", io.ErrUnexpectedEOF, "reading %s", "a.xml")

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, errs.ErrConfigLoad))
	assert.Contains(t, err.Error(), "reading a.xml")
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.NoError(t, errs.Wrap(errs.CodeConfigLoad, "op", nil, "ignored"))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", errs.New(errs.CodeIllegalState, "", "already refreshed"))

	assert.Equal(t, errs.CodeIllegalState, errs.CodeOf(wrapped))
	assert.Equal(t, errs.CodeUnknown, errs.CodeOf(io.EOF))
}
