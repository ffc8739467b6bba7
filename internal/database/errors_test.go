package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres unique", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "postgres fk", err: &pq.Error{Code: "23503"}, want: false},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: users.phone_number"), want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
