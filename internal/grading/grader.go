// Package grading scores a student's answer against a reference answer with an LLM.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
	"github.com/hkao1210/A-PLUS-I/internal/config"
	"github.com/hkao1210/A-PLUS-I/internal/model"
)

const systemPrompt = `You are a strict but fair teaching assistant grading a student's written answer.
Reply with a single JSON object and nothing else, shaped exactly like:
{"score": <number 0-100>, "breakdown": {"accuracy": <number 0-%[1]d>, "clarity": <number 0-%[1]d>, "concepts": <number 0-%[1]d>}, "feedback": "<two or three sentences>"}`

const userPrompt = `Question:
%s

Maximum sub-score: %d

Reference answer:
%s

Student answer:
%s`

// Submission is one answer to grade.
type Submission struct {
	Question        string
	ReferenceAnswer string
	StudentAnswer   string
}

// LLMGrader prompts a language model for a JSON assessment and normalizes it.
type LLMGrader struct {
	llm         llms.Model
	limiter     *rate.Limiter
	temperature float64
	logger      *slog.Logger
	outcomes    *prometheus.CounterVec
}

// NewOllama creates the Ollama-backed model named in cfg.
func NewOllama(cfg config.GraderConfig) (llms.Model, error) {
	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.OllamaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return llm, nil
}

// NewLLMGrader wraps llm. Calls are limited to cfg.RatePerSec with cfg.Burst; a
// non-positive rate disables the limit. reg may be nil.
func NewLLMGrader(llm llms.Model, cfg config.GraderConfig, logger *slog.Logger, reg prometheus.Registerer) (*LLMGrader, error) {
	if llm == nil {
		return nil, errors.New("grading model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aplus_grading_requests_total",
		Help: "Grading requests by outcome.",
	}, []string{"outcome"})
	if reg != nil {
		if err := reg.Register(outcomes); err != nil {
			return nil, fmt.Errorf("register grading metrics: %w", err)
		}
	}

	return &LLMGrader{
		llm:         llm,
		limiter:     rate.NewLimiter(limit, burst),
		temperature: cfg.Temperature,
		logger:      logger.With(slog.String("component", "grader")),
		outcomes:    outcomes,
	}, nil
}

// Grade returns a fully normalized result. Model failures and answers that are not a
// valid result are GradingErrors.
func (g *LLMGrader) Grade(ctx context.Context, s Submission) (*model.AssessmentResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		g.outcomes.WithLabelValues("throttled").Inc()
		return nil, fmt.Errorf("wait for grading slot: %w", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPrompt, model.MaxSubScore)),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf(userPrompt, s.Question, model.MaxSubScore, s.ReferenceAnswer, s.StudentAnswer)),
	}

	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithTemperature(g.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		g.outcomes.WithLabelValues("model_error").Inc()
		return nil, &apperr.GradingError{Reason: "grading model unavailable", Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		g.outcomes.WithLabelValues("invalid").Inc()
		return nil, apperr.Malformed("grading model returned no answer")
	}

	res, err := model.NormalizeResult([]byte(jsonObject(resp.Choices[0].Content)))
	if err != nil {
		g.outcomes.WithLabelValues("invalid").Inc()
		g.logger.Warn("grading model answer rejected", slog.String("error", err.Error()))
		return nil, err
	}

	g.outcomes.WithLabelValues("ok").Inc()
	return res, nil
}

// jsonObject trims chatter and code fences around the first JSON object in s.
func jsonObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
