package postgres

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ierr.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "progress_states_scope_sequence_key"}, ierr.ErrAlreadyExists},
		{"foreign key", &pq.Error{Code: "23503"}, ierr.ErrReferential},
		{"serialization", &pq.Error{Code: "40001"}, ierr.ErrTransient},
		{"deadlock", &pq.Error{Code: "40P01"}, ierr.ErrTransient},
		{"connection failure", &pq.Error{Code: "08006"}, ierr.ErrTransient},
		{"bad conn", driver.ErrBadConn, ierr.ErrTransient},
		{"syntax", &pq.Error{Code: "42601"}, ierr.ErrDatabase},
		{"other", errors.New("boom"), ierr.ErrDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, "progress state")
			assert.True(t, errors.Is(got, tt.want), "got %v", got)
		})
	}

	assert.NoError(t, WrapError(nil, "progress state"))
}
