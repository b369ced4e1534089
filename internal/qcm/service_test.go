package qcm

import (
	"errors"
	"testing"
)

func validQCMInput() QCMInput {
	return QCMInput{
		ChapterID: 3,
		Question:  "Qui raconte l'histoire ?",
		Options: []Option{
			{ID: "a", Text: "Sidi Mohammed"},
			{ID: "b", Text: "Lalla Zoubida"},
			{ID: "c", Text: "Abdellah"},
			{ID: "d", Text: "Le fqih"},
		},
		CorrectAnswer: "a",
	}
}

func TestValidateQCMInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QCMInput)
		wantErr bool
	}{
		{name: "valid", mutate: func(in *QCMInput) {}},
		{
			name:    "missing chapter",
			mutate:  func(in *QCMInput) { in.ChapterID = 0 },
			wantErr: true,
		},
		{
			name:    "missing question",
			mutate:  func(in *QCMInput) { in.Question = "  " },
			wantErr: true,
		},
		{
			name:    "three options",
			mutate:  func(in *QCMInput) { in.Options = in.Options[:3] },
			wantErr: true,
		},
		{
			name: "five options",
			mutate: func(in *QCMInput) {
				in.Options = append(in.Options, Option{ID: "e", Text: "Autre"})
			},
			wantErr: true,
		},
		{
			name: "wrong option id",
			mutate: func(in *QCMInput) {
				in.Options[2].ID = "x"
			},
			wantErr: true,
		},
		{
			name: "option missing text",
			mutate: func(in *QCMInput) {
				in.Options[3].Text = ""
			},
			wantErr: true,
		},
		{
			name:    "answer outside a-d",
			mutate:  func(in *QCMInput) { in.CorrectAnswer = "e" },
			wantErr: true,
		},
		{
			name:    "empty answer",
			mutate:  func(in *QCMInput) { in.CorrectAnswer = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validQCMInput()
			tt.mutate(&in)
			err := validateQCMInput(in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
