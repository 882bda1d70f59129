package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/translation-arena/backend/internal/scoring"
)

const judgeSystemPrompt = `You are a natural language inference judge for translations.
You receive a PREMISE (the original text) and a HYPOTHESIS (a translation of it, possibly in another language).
Decide whether the hypothesis is entailed by, neutral to, or contradicts the premise in meaning.
Respond with JSON only, no prose: {"label": "entailment" | "neutral" | "contradiction", "confidence": <number between 0 and 1>}`

// JudgeClassifier runs NLI by prompting an LLM.
type JudgeClassifier struct {
	llm LLMClient
}

var _ scoring.ClassificationBackend = (*JudgeClassifier)(nil)

func NewJudgeClassifier(llm LLMClient) *JudgeClassifier {
	return &JudgeClassifier{llm: llm}
}

func BuildJudgePrompt(premise, hypothesis string) string {
	return fmt.Sprintf("PREMISE:\n%s\n\nHYPOTHESIS:\n%s\n", premise, hypothesis)
}

func (j *JudgeClassifier) Classify(ctx context.Context, premise, hypothesis string) (scoring.Classification, error) {
	resp, err := j.llm.Generate(ctx, judgeSystemPrompt, BuildJudgePrompt(premise, hypothesis))
	if err != nil {
		return scoring.Classification{}, fmt.Errorf("judge: %w", err)
	}
	return ParseClassification(resp.Content)
}

// ParseClassification decodes a judge verdict, tolerating markdown code fences.
func ParseClassification(body string) (scoring.Classification, error) {
	var out rawClassification
	if err := json.Unmarshal([]byte(stripCodeFences(body)), &out); err != nil {
		return scoring.Classification{}, fmt.Errorf("failed to parse judge response: %w", err)
	}
	c, err := out.normalize()
	if err != nil {
		return scoring.Classification{}, fmt.Errorf("judge returned %w", err)
	}
	return c, nil
}

// rawClassification is a verdict as a backend reports it, before the label is
// case folded and the confidence clamped to [0, 1].
type rawClassification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func (r rawClassification) normalize() (scoring.Classification, error) {
	label := scoring.NLILabel(strings.ToLower(strings.TrimSpace(r.Label)))
	switch label {
	case scoring.LabelEntailment, scoring.LabelNeutral, scoring.LabelContradiction:
	default:
		return scoring.Classification{}, fmt.Errorf("unknown label %q", r.Label)
	}
	return scoring.Classification{
		Label:      label,
		Confidence: math.Max(0, math.Min(1, r.Confidence)),
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
