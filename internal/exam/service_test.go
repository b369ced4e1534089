package exam

import (
	"testing"

	"github.com/MTOUIRI/SmartJihawi/internal/question"
)

func TestComposeCompleteExam(t *testing.T) {
	e := Exam{ID: 4, BookID: "antigone", Title: "Session 2024", Year: 2024}
	structured := []question.Question{
		{ID: 1, ExamID: 4, Type: question.TypeText, Points: 2, Order: 1},
		{ID: 2, ExamID: 4, Type: question.TypeMultipleChoiceSingle, Points: 3, Order: 2},
	}
	essays := []question.EssayQuestion{
		{ID: 7, ExamID: 4, Type: question.TypeEssaySubject, Points: 5, Order: 1},
	}

	got := composeCompleteExam(e, structured, essays)

	if got.TotalQuestions != 3 {
		t.Fatalf("TotalQuestions = %d, want 3", got.TotalQuestions)
	}
	if got.TotalPoints != 10 {
		t.Fatalf("TotalPoints = %d, want 10", got.TotalPoints)
	}
	if len(got.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(got.Items))
	}
	// Structured family always precedes the essay family.
	if got.Items[0].Family != FamilyStructured || got.Items[1].Family != FamilyStructured {
		t.Fatalf("first items should be structured, got %s,%s", got.Items[0].Family, got.Items[1].Family)
	}
	if got.Items[2].Family != FamilyEssay {
		t.Fatalf("last item should be essay, got %s", got.Items[2].Family)
	}
}

func TestComposeCompleteExamEmpty(t *testing.T) {
	got := composeCompleteExam(Exam{ID: 1}, nil, nil)
	if got.TotalQuestions != 0 || got.TotalPoints != 0 || len(got.Items) != 0 {
		t.Fatalf("empty exam should aggregate to zero, got %+v", got)
	}
}

func TestComputeStatistics(t *testing.T) {
	structured := []question.Question{
		{Type: question.TypeText, Points: 2},
		{Type: question.TypeText, Points: 2},
		{Type: question.TypeMatching, Points: 4},
	}
	essays := []question.EssayQuestion{
		{Type: question.TypeEssayIntroduction, Points: 3},
		{Type: question.TypeEssaySubject, Points: 10},
	}

	got := computeStatistics(9, structured, essays)

	if got.StructuredCount != 3 || got.EssayCount != 2 {
		t.Fatalf("counts = %d/%d, want 3/2", got.StructuredCount, got.EssayCount)
	}
	if got.TotalQuestions != 5 {
		t.Fatalf("TotalQuestions = %d, want 5", got.TotalQuestions)
	}
	if got.TotalPoints != 21 {
		t.Fatalf("TotalPoints = %d, want 21", got.TotalPoints)
	}
	if got.CountsByType[question.TypeText] != 2 {
		t.Fatalf("text count = %d, want 2", got.CountsByType[question.TypeText])
	}
	if got.CountsByType[question.TypeEssaySubject] != 1 {
		t.Fatalf("essay subject count = %d, want 1", got.CountsByType[question.TypeEssaySubject])
	}
}

func TestBooksCatalogue(t *testing.T) {
	all := Books()
	if len(all) != 3 {
		t.Fatalf("expected 3 books, got %d", len(all))
	}
	if all[0].ID != "dernier-jour" {
		t.Fatalf("first book = %s, want dernier-jour", all[0].ID)
	}

	if _, ok := BookByID("antigone"); !ok {
		t.Fatalf("antigone should exist")
	}
	if _, ok := BookByID("germinal"); ok {
		t.Fatalf("germinal should not exist")
	}
	if got := BookTitle("boite-merveilles"); got != "La Boîte à merveilles" {
		t.Fatalf("BookTitle = %q", got)
	}
	if got := BookTitle("unknown"); got != "unknown" {
		t.Fatalf("unknown book should fall back to its slug, got %q", got)
	}
}

func TestValidateExamInput(t *testing.T) {
	valid := ExamInput{BookID: "antigone", Title: "Session normale", Year: 2023}
	if err := validateExamInput(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ExamInput)
	}{
		{"missing book", func(in *ExamInput) { in.BookID = "" }},
		{"unknown book", func(in *ExamInput) { in.BookID = "germinal" }},
		{"missing title", func(in *ExamInput) { in.Title = " " }},
		{"implausible year", func(in *ExamInput) { in.Year = 1850 }},
		{"negative points", func(in *ExamInput) { in.Points = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if err := validateExamInput(in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
