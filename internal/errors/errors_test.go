package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "locked",
			err:    NewError("state is finalized").Mark(ErrLocked),
			status: http.StatusLocked,
			code:   ErrCodeLocked,
		},
		{
			name:   "already finalized",
			err:    NewError("finalize twice").Mark(ErrAlreadyFinalized),
			status: http.StatusConflict,
			code:   ErrCodeAlreadyFinalized,
		},
		{
			name:   "referential",
			err:    NewError("order not locked").Mark(ErrReferential),
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeReferential,
		},
		{
			name:   "transient wins over database",
			err:    WithError(NewError("serialization failure").Mark(ErrDatabase)).Mark(ErrTransient),
			status: http.StatusServiceUnavailable,
			code:   ErrCodeTransient,
		},
		{
			name:   "unmarked",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   ErrCodeSystemError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
			assert.Equal(t, tt.code, CodeFromErr(tt.err))
		})
	}
}

func TestIsBusinessRule(t *testing.T) {
	assert.True(t, IsBusinessRule(NewError("x").Mark(ErrLocked)))
	assert.True(t, IsBusinessRule(NewError("x").Mark(ErrValidation)))
	assert.False(t, IsBusinessRule(NewError("x").Mark(ErrDatabase)))
	assert.False(t, IsBusinessRule(errors.New("x")))
}

func TestBuilderKeepsHint(t *testing.T) {
	err := NewError("line not found").
		WithHint("Line item not found").
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.Contains(t, errors.GetAllHints(err), "Line item not found")
}
