package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/scoring"
	"google.golang.org/genai"
)

//go:embed prompts/judge.tmpl
var defaultJudgePrompt string

const judgeSystemInstruction = `You are an expert language tutor evaluating student answers.
Compare the student's answer with the expected answer in the context of the question.
Rate the answer from 0.0 to 1.0 based on semantic correctness and completeness.
Consider:
- Meaning and intent (more important than exact wording)
- Grammatical correctness
- Completeness of the response

Respond with ONLY a number between 0.0 and 1.0, nothing else.`

var scorePattern = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)`)

// contentGenerator is the part of *genai.Models the judge needs.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type promptData struct {
	Question  string
	Expected  string
	Submitted string
}

// Judge implements scoring.Judge by asking a Gemini model for a grade.
type Judge struct {
	models contentGenerator
	model  string
	prompt *template.Template
	retry  retryPolicy
	logger *slog.Logger
}

var _ scoring.Judge = (*Judge)(nil)

// NewJudge creates a Judge. The prompt template is read from cfg.PromptPath
// when set, otherwise the built-in template is used.
func NewJudge(models contentGenerator, cfg config.LLMConfig, logger *slog.Logger) (*Judge, error) {
	if models == nil {
		return nil, ErrNilModels
	}
	if cfg.JudgeModel == "" {
		return nil, fmt.Errorf("%w: judge model cannot be empty", scoring.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	source := defaultJudgePrompt
	if cfg.PromptPath != "" {
		data, err := os.ReadFile(cfg.PromptPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %w",
				scoring.ErrInvalidConfig, cfg.PromptPath, err)
		}
		source = string(data)
	}
	prompt, err := template.New("judge").Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %w", scoring.ErrInvalidConfig, err)
	}

	return &Judge{
		models: models,
		model:  cfg.JudgeModel,
		prompt: prompt,
		retry:  newRetryPolicy(cfg.MaxRetries, cfg.BaseDelay),
		logger: logger.With(slog.String("component", "gemini_judge")),
	}, nil
}

// Judge grades submitted against expected and returns a score in [0, 1].
func (j *Judge) Judge(ctx context.Context, question, expected, submitted string) (float64, error) {
	var buf bytes.Buffer
	if err := j.prompt.Execute(&buf, promptData{
		Question:  question,
		Expected:  expected,
		Submitted: submitted,
	}); err != nil {
		return 0, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	temperature := float32(0)
	genConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: judgeSystemInstruction}},
		},
	}
	contents := genai.Text(buf.String())

	var score float64
	err := j.retry.do(ctx, j.logger, "judge", func(ctx context.Context) error {
		resp, err := j.models.GenerateContent(ctx, j.model, contents, genConfig)
		if err != nil {
			return wrapAPIError(err)
		}
		text, err := responseText(resp)
		if err != nil {
			return err
		}
		score, err = ParseScore(text)
		return err
	})
	if err != nil {
		return 0, err
	}

	j.logger.DebugContext(ctx, "answer judged", slog.Float64("score", score))
	return score, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", scoring.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", scoring.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content", scoring.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// ParseScore reads the grade from a model reply. The reply should be a bare
// number; otherwise the first number in the text is used. The result is
// clamped to [0, 1].
func ParseScore(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty reply", scoring.ErrInvalidResponse)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		match := scorePattern.FindString(text)
		if match == "" {
			return 0, fmt.Errorf("%w: no score in reply %q", scoring.ErrInvalidResponse, truncate(text, 40))
		}
		if v, err = strconv.ParseFloat(match, 64); err != nil {
			return 0, fmt.Errorf("%w: %w", scoring.ErrInvalidResponse, err)
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite score %q", scoring.ErrInvalidResponse, truncate(text, 40))
	}
	return scoring.ClampScore(v), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
