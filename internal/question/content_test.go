package question

import (
	"encoding/json"
	"errors"
	"testing"
)

func validChoiceInput() QuestionInput {
	return QuestionInput{
		ExamID:   1,
		Type:     TypeMultipleChoiceSingle,
		Question: "Qui est le narrateur ?",
		Points:   2,
		Options: []ChoiceOption{
			{ID: "a", Text: "Le condamné"},
			{ID: "b", Text: "Le juge"},
		},
		Answer: "a",
	}
}

func TestValidateQuestionInput_MultipleChoiceSingle(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QuestionInput)
		wantErr bool
	}{
		{name: "valid", mutate: func(in *QuestionInput) {}},
		{
			name:    "answer not among options",
			mutate:  func(in *QuestionInput) { in.Answer = "c" },
			wantErr: true,
		},
		{
			name:    "too few options",
			mutate:  func(in *QuestionInput) { in.Options = in.Options[:1] },
			wantErr: true,
		},
		{
			name: "too many options",
			mutate: func(in *QuestionInput) {
				in.Options = []ChoiceOption{
					{ID: "a", Text: "1"}, {ID: "b", Text: "2"}, {ID: "c", Text: "3"},
					{ID: "d", Text: "4"}, {ID: "e", Text: "5"}, {ID: "f", Text: "6"},
					{ID: "g", Text: "7"},
				}
				in.Answer = "a"
			},
			wantErr: true,
		},
		{
			name: "duplicate option ids",
			mutate: func(in *QuestionInput) {
				in.Options = []ChoiceOption{{ID: "a", Text: "1"}, {ID: "a", Text: "2"}}
			},
			wantErr: true,
		},
		{
			name: "option missing text",
			mutate: func(in *QuestionInput) {
				in.Options = []ChoiceOption{{ID: "a", Text: ""}, {ID: "b", Text: "2"}}
			},
			wantErr: true,
		},
		{
			name:    "empty question text",
			mutate:  func(in *QuestionInput) { in.Question = "" },
			wantErr: true,
		},
		{
			name:    "points below minimum",
			mutate:  func(in *QuestionInput) { in.Points = 0 },
			wantErr: true,
		},
		{
			name:    "points above maximum",
			mutate:  func(in *QuestionInput) { in.Points = 21 },
			wantErr: true,
		},
		{
			name:    "unknown type",
			mutate:  func(in *QuestionInput) { in.Type = "mystery" },
			wantErr: true,
		},
		{
			name:    "essay type rejected in structured family",
			mutate:  func(in *QuestionInput) { in.Type = TypeEssayIntroduction },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validChoiceInput()
			tt.mutate(&in)
			err := validateQuestionInput(in)
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

func TestValidateQuestionInput_TrueFalse(t *testing.T) {
	base := QuestionInput{
		ExamID:   1,
		Type:     TypeMultipleChoice,
		Question: "Répondez par vrai ou faux.",
		Points:   3,
	}

	tests := []struct {
		name    string
		subs    []SubQuestion
		wantErr bool
	}{
		{
			name: "french tokens",
			subs: []SubQuestion{
				{ID: "1", Question: "Le récit est à la première personne.", Answer: "VRAI"},
				{ID: "2", Question: "L'action se passe à Rabat.", Answer: "FAUX"},
			},
		},
		{
			name: "arabic tokens",
			subs: []SubQuestion{
				{ID: "1", Question: "سؤال", Answer: "صحيح"},
				{ID: "2", Question: "سؤال آخر", Answer: "خطأ"},
			},
		},
		{
			name:    "no sub questions",
			subs:    nil,
			wantErr: true,
		},
		{
			name: "invalid token",
			subs: []SubQuestion{
				{ID: "1", Question: "Question.", Answer: "PEUT-ETRE"},
			},
			wantErr: true,
		},
		{
			name: "missing sub question id",
			subs: []SubQuestion{
				{ID: "", Question: "Question.", Answer: "VRAI"},
			},
			wantErr: true,
		},
		{
			name: "too many sub questions",
			subs: func() []SubQuestion {
				out := make([]SubQuestion, 11)
				for i := range out {
					out[i] = SubQuestion{ID: string(rune('a' + i)), Question: "q", Answer: "VRAI"}
				}
				return out
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.SubQuestions = tt.subs
			err := validateQuestionInput(in)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateQuestionInput_Matching(t *testing.T) {
	in := QuestionInput{
		ExamID:   1,
		Type:     TypeMatching,
		Question: "Associez chaque personnage à sa description.",
		Points:   4,
		MatchingPairs: []MatchingPair{
			{Left: "Antigone", Right: "fille d'Œdipe"},
			{Left: "Créon", Right: "roi de Thèbes"},
		},
		Options: []ChoiceOption{
			{ID: "1", Text: "fille d'Œdipe"},
			{ID: "2", Text: "roi de Thèbes"},
		},
	}
	if err := validateQuestionInput(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.MatchingPairs = append(in.MatchingPairs, make([]MatchingPair, 7)...)
	if err := validateQuestionInput(in); err == nil {
		t.Fatalf("expected error for more than 8 pairs")
	}

	in.MatchingPairs = []MatchingPair{{Left: "Antigone", Right: ""}}
	if err := validateQuestionInput(in); err == nil {
		t.Fatalf("expected error for pair missing a side")
	}
}

func TestValidateQuestionInput_Table(t *testing.T) {
	in := QuestionInput{
		ExamID:   1,
		Type:     TypeTable,
		Question: "Complétez le tableau.",
		Points:   5,
		TableContent: &TableContent{
			Headers: []string{"Personnage", "Rôle", "Œuvre"},
			Answer:  []string{"Sidi Mohammed", "narrateur", "La Boîte à merveilles"},
		},
	}
	if err := validateQuestionInput(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.TableContent.Answer = in.TableContent.Answer[:2]
	if err := validateQuestionInput(in); err == nil {
		t.Fatalf("expected error when headers and answer lengths differ")
	}

	in.TableContent = nil
	if err := validateQuestionInput(in); err == nil {
		t.Fatalf("expected error when table content is missing")
	}
}

func TestValidateQuestionInput_WordPlacement(t *testing.T) {
	in := QuestionInput{
		ExamID:   1,
		Type:     TypeWordPlacement,
		Question: "Placez les mots dans le texte.",
		Points:   2,
		DragDropWords: &DragDropWords{
			Template: "Le ___ attend son ___ .",
			Words:    []string{"condamné", "exécution"},
		},
	}
	if err := validateQuestionInput(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.DragDropWords.Words = nil
	if err := validateQuestionInput(in); err == nil {
		t.Fatalf("expected error when word list is empty")
	}

	in.DragDropWords = nil
	if err := validateQuestionInput(in); err == nil {
		t.Fatalf("expected error when drag drop payload is missing")
	}
}

func TestValidateEssayInput(t *testing.T) {
	criteria := map[string]json.RawMessage{
		"discourse": json.RawMessage(`{"points": 10}`),
		"language":  json.RawMessage(`{"points": 10}`),
	}

	tests := []struct {
		name    string
		in      EssayInput
		wantErr bool
	}{
		{
			name: "valid introduction with phrases",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeEssayIntroduction,
				Question: "Rédigez l'introduction.",
				Points:   5,
				ProgressivePhrases: []ProgressivePhrase{
					{Template: "L'œuvre ___ est écrite par ___", Words: []string{"Antigone", "Anouilh"}},
				},
			},
		},
		{
			name: "valid subject with criteria",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeEssaySubject,
				Question: "Sujet de production écrite",
				Prompt:   "Pensez-vous que la peine de mort soit juste ?",
				Points:   10,
				Criteria: criteria,
			},
		},
		{
			name: "subject missing prompt",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeEssaySubject,
				Question: "Sujet",
				Points:   10,
				Criteria: criteria,
			},
			wantErr: true,
		},
		{
			name: "subject missing criteria key",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeEssaySubject,
				Question: "Sujet",
				Prompt:   "Discutez.",
				Points:   10,
				Criteria: map[string]json.RawMessage{
					"discourse": json.RawMessage(`{}`),
				},
			},
			wantErr: true,
		},
		{
			name: "phrase missing words",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeEssayDevelopment,
				Question: "Rédigez le développement.",
				Points:   5,
				ProgressivePhrases: []ProgressivePhrase{
					{Template: "D'abord, ___"},
				},
			},
			wantErr: true,
		},
		{
			name: "structured type rejected in essay family",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeMultipleChoiceSingle,
				Question: "Question.",
				Points:   2,
			},
			wantErr: true,
		},
		{
			name: "points out of range",
			in: EssayInput{
				ExamID:   1,
				Type:     TypeEssayConclusion,
				Question: "Rédigez la conclusion.",
				Points:   25,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEssayInput(tt.in)
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
