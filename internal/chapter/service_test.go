package chapter

import (
	"errors"
	"testing"
)

func TestValidateChapterInput(t *testing.T) {
	valid := ChapterInput{
		BookID:        "antigone",
		ChapterNumber: 3,
		Title:         "Le prologue",
		TitleArabic:   "المقدمة",
		Duration:      40,
	}

	cases := []struct {
		name    string
		mutate  func(in *ChapterInput)
		wantErr error
	}{
		{name: "valid", mutate: func(in *ChapterInput) {}},
		{
			name:    "missing book",
			mutate:  func(in *ChapterInput) { in.BookID = "" },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown book",
			mutate:  func(in *ChapterInput) { in.BookID = "les-miserables" },
			wantErr: ErrBookNotFound,
		},
		{
			name:    "zero chapter number",
			mutate:  func(in *ChapterInput) { in.ChapterNumber = 0 },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative chapter number",
			mutate:  func(in *ChapterInput) { in.ChapterNumber = -1 },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing title",
			mutate:  func(in *ChapterInput) { in.Title = "   " },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative duration",
			mutate:  func(in *ChapterInput) { in.Duration = -5 },
			wantErr: ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := validateChapterInput(in)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
