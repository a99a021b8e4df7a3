package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDCandidates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"canonical uuid", "6f1c2a8e-1f1d-4c1b-9a4e-2f6d7c8b9a01", []string{"6f1c2a8e-1f1d-4c1b-9a4e-2f6d7c8b9a01"}},
		{"uppercase uuid", "6F1C2A8E-1F1D-4C1B-9A4E-2F6D7C8B9A01", []string{"6f1c2a8e-1f1d-4c1b-9a4e-2f6d7c8b9a01", "6F1C2A8E-1F1D-4C1B-9A4E-2F6D7C8B9A01"}},
		{"compact uuid", "6f1c2a8e1f1d4c1b9a4e2f6d7c8b9a01", []string{"6f1c2a8e-1f1d-4c1b-9a4e-2f6d7c8b9a01", "6f1c2a8e1f1d4c1b9a4e2f6d7c8b9a01"}},
		{"legacy string id", "proj_42", []string{"proj_42"}},
		{"surrounding whitespace", "  proj_42 ", []string{"proj_42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IDCandidates(tt.raw))
		})
	}
}
