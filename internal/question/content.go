package question

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Structured question types, mirroring the admin panel's form registry.
const (
	TypeMultipleChoiceSingle = "multiple_choice_single"
	TypeMultipleChoice       = "multiple_choice"
	TypeText                 = "text"
	TypeMatching             = "matching"
	TypeTable                = "table"
	TypeWordPlacement        = "word_placement"
)

// Essay question types. The three section types build one essay step by
// step; essay_subject carries the graded writing prompt.
const (
	TypeEssayIntroduction = "essay_introduction"
	TypeEssayDevelopment  = "essay_development"
	TypeEssayConclusion   = "essay_conclusion"
	TypeEssaySubject      = "essay_subject"
)

const (
	minPoints = 1
	maxPoints = 20
)

var structuredTypes = map[string]struct{}{
	TypeMultipleChoiceSingle: {},
	TypeMultipleChoice:       {},
	TypeText:                 {},
	TypeMatching:             {},
	TypeTable:                {},
	TypeWordPlacement:        {},
}

var essayTypes = map[string]struct{}{
	TypeEssayIntroduction: {},
	TypeEssayDevelopment:  {},
	TypeEssayConclusion:   {},
	TypeEssaySubject:      {},
}

// Accepted answers for true/false sub-questions, French and Arabic.
var trueFalseTokens = map[string]struct{}{
	"VRAI": {},
	"FAUX": {},
	"صحيح": {},
	"خطأ":  {},
}

type ChoiceOption struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	TextArabic string `json:"text_arabic,omitempty"`
}

type SubQuestion struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	QuestionArabic string `json:"question_arabic,omitempty"`
	Answer         string `json:"answer"`
}

type MatchingPair struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	LeftArabic  string `json:"left_arabic,omitempty"`
	RightArabic string `json:"right_arabic,omitempty"`
}

type TableContent struct {
	Headers       []string `json:"headers"`
	HeadersArabic []string `json:"headers_arabic,omitempty"`
	Answer        []string `json:"answer"`
}

type DragDropWords struct {
	Template       string   `json:"template"`
	TemplateArabic string   `json:"template_arabic,omitempty"`
	Words          []string `json:"words"`
}

type ProgressivePhrase struct {
	Template       string   `json:"template"`
	TemplateArabic string   `json:"template_arabic,omitempty"`
	Words          []string `json:"words"`
}

func validType(set map[string]struct{}, t string) bool {
	_, ok := set[t]
	return ok
}

func typeList(set map[string]struct{}) string {
	names := make([]string, 0, len(set))
	for t := range set {
		names = append(names, t)
	}
	return strings.Join(names, ", ")
}

// validateQuestionInput is a pure gate: it either accepts the payload or
// returns a validation error naming the offending field. It never
// mutates the input and performs no I/O.
func validateQuestionInput(in QuestionInput) error {
	if err := validateCommon(in.Type, in.Question, in.Points, structuredTypes); err != nil {
		return err
	}

	switch in.Type {
	case TypeMultipleChoiceSingle:
		return validateMultipleChoiceSingle(in.Options, in.Answer)
	case TypeMultipleChoice:
		return validateSubQuestions(in.SubQuestions)
	case TypeMatching:
		return validateMatching(in.MatchingPairs, in.Options)
	case TypeTable:
		return validateTable(in.TableContent)
	case TypeWordPlacement:
		return validateWordPlacement(in.DragDropWords)
	}
	// "text" carries no structured payload beyond the generic fields.
	return nil
}

func validateEssayInput(in EssayInput) error {
	if err := validateCommon(in.Type, in.Question, in.Points, essayTypes); err != nil {
		return err
	}

	switch in.Type {
	case TypeEssayIntroduction, TypeEssayDevelopment, TypeEssayConclusion:
		return validateProgressivePhrases(in.ProgressivePhrases)
	case TypeEssaySubject:
		return validateEssaySubject(in.Criteria, in.Prompt)
	}
	return nil
}

func validateCommon(qType, text string, points int, valid map[string]struct{}) error {
	if strings.TrimSpace(qType) == "" {
		return fmt.Errorf("%w: question type is required", ErrInvalidInput)
	}
	if !validType(valid, qType) {
		return fmt.Errorf("%w: unknown question type '%s' (valid: %s)", ErrInvalidInput, qType, typeList(valid))
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if points < minPoints {
		return fmt.Errorf("%w: points must be at least %d", ErrInvalidInput, minPoints)
	}
	if points > maxPoints {
		return fmt.Errorf("%w: points cannot exceed %d", ErrInvalidInput, maxPoints)
	}
	return nil
}

func validateMultipleChoiceSingle(options []ChoiceOption, answer string) error {
	if len(options) == 0 {
		return fmt.Errorf("%w: options are required for multiple choice questions", ErrInvalidInput)
	}
	if len(options) < 2 {
		return fmt.Errorf("%w: at least 2 options are required", ErrInvalidInput)
	}
	if len(options) > 6 {
		return fmt.Errorf("%w: at most 6 options are allowed", ErrInvalidInput)
	}
	ids := map[string]struct{}{}
	for i, opt := range options {
		if strings.TrimSpace(opt.ID) == "" || strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("%w: options[%d] must have an 'id' and a 'text'", ErrInvalidInput, i)
		}
		if _, dup := ids[opt.ID]; dup {
			return fmt.Errorf("%w: duplicate option id '%s'", ErrInvalidInput, opt.ID)
		}
		ids[opt.ID] = struct{}{}
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: the correct answer is required", ErrInvalidInput)
	}
	if _, ok := ids[answer]; !ok {
		return fmt.Errorf("%w: the correct answer must match one of the option ids", ErrInvalidInput)
	}
	return nil
}

func validateSubQuestions(subs []SubQuestion) error {
	if len(subs) == 0 {
		return fmt.Errorf("%w: sub-questions are required for this question type", ErrInvalidInput)
	}
	if len(subs) > 10 {
		return fmt.Errorf("%w: at most 10 sub-questions are allowed", ErrInvalidInput)
	}
	for i, sub := range subs {
		if strings.TrimSpace(sub.ID) == "" || strings.TrimSpace(sub.Question) == "" || strings.TrimSpace(sub.Answer) == "" {
			return fmt.Errorf("%w: sub_questions[%d] must have 'id', 'question' and 'answer'", ErrInvalidInput, i)
		}
		if _, ok := trueFalseTokens[sub.Answer]; !ok {
			return fmt.Errorf("%w: sub_questions[%d].answer must be 'VRAI', 'FAUX', 'صحيح' or 'خطأ'", ErrInvalidInput, i)
		}
	}
	return nil
}

func validateMatching(pairs []MatchingPair, options []ChoiceOption) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: matching pairs are required", ErrInvalidInput)
	}
	if len(pairs) > 8 {
		return fmt.Errorf("%w: at most 8 matching pairs are allowed", ErrInvalidInput)
	}
	if len(options) == 0 {
		return fmt.Errorf("%w: answer options are required for matching questions", ErrInvalidInput)
	}
	for i, pair := range pairs {
		if strings.TrimSpace(pair.Left) == "" || strings.TrimSpace(pair.Right) == "" {
			return fmt.Errorf("%w: matching_pairs[%d] must have 'left' and 'right'", ErrInvalidInput, i)
		}
	}
	return nil
}

func validateTable(content *TableContent) error {
	if content == nil {
		return fmt.Errorf("%w: table content is required", ErrInvalidInput)
	}
	if len(content.Headers) == 0 {
		return fmt.Errorf("%w: table headers are required", ErrInvalidInput)
	}
	if len(content.Answer) == 0 {
		return fmt.Errorf("%w: table answers are required", ErrInvalidInput)
	}
	if len(content.Headers) != len(content.Answer) {
		return fmt.Errorf("%w: the number of table headers must match the number of answers", ErrInvalidInput)
	}
	return nil
}

func validateWordPlacement(words *DragDropWords) error {
	if words == nil {
		return fmt.Errorf("%w: word placement data is required", ErrInvalidInput)
	}
	if strings.TrimSpace(words.Template) == "" {
		return fmt.Errorf("%w: the placement template is required", ErrInvalidInput)
	}
	if len(words.Words) == 0 {
		return fmt.Errorf("%w: the word list is required", ErrInvalidInput)
	}
	return nil
}

func validateProgressivePhrases(phrases []ProgressivePhrase) error {
	for i, phrase := range phrases {
		if strings.TrimSpace(phrase.Template) == "" {
			return fmt.Errorf("%w: progressive_phrases[%d].template is required", ErrInvalidInput, i)
		}
		if len(phrase.Words) == 0 {
			return fmt.Errorf("%w: progressive_phrases[%d].words is required", ErrInvalidInput, i)
		}
	}
	return nil
}

func validateEssaySubject(criteria map[string]json.RawMessage, prompt string) error {
	if len(criteria) == 0 {
		return fmt.Errorf("%w: evaluation criteria are required for the essay subject", ErrInvalidInput)
	}
	if _, ok := criteria["discourse"]; !ok {
		return fmt.Errorf("%w: criteria must contain 'discourse'", ErrInvalidInput)
	}
	if _, ok := criteria["language"]; !ok {
		return fmt.Errorf("%w: criteria must contain 'language'", ErrInvalidInput)
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: the essay prompt is required", ErrInvalidInput)
	}
	return nil
}
