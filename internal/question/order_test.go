package question

import (
	"errors"
	"testing"
)

func TestVerifyPermutation(t *testing.T) {
	tests := []struct {
		name     string
		existing []int64
		supplied []int64
		wantErr  bool
	}{
		{
			name:     "identity",
			existing: []int64{1, 2, 3},
			supplied: []int64{1, 2, 3},
		},
		{
			name:     "reversed",
			existing: []int64{1, 2, 3},
			supplied: []int64{3, 2, 1},
		},
		{
			name:     "single item",
			existing: []int64{7},
			supplied: []int64{7},
		},
		{
			name:     "missing an id",
			existing: []int64{1, 2, 3},
			supplied: []int64{1, 2},
			wantErr:  true,
		},
		{
			name:     "extra id",
			existing: []int64{1, 2},
			supplied: []int64{1, 2, 3},
			wantErr:  true,
		},
		{
			name:     "foreign id",
			existing: []int64{1, 2, 3},
			supplied: []int64{1, 2, 99},
			wantErr:  true,
		},
		{
			name:     "duplicate id",
			existing: []int64{1, 2, 3},
			supplied: []int64{1, 2, 2},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyPermutation(tt.existing, tt.supplied)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if !errors.Is(err, ErrNotInExam) {
					t.Fatalf("expected ErrNotInExam, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
