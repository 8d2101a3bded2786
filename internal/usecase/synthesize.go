package usecase

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"pharmadoc/internal/adapter/llm"
	"pharmadoc/internal/domain"
	"pharmadoc/internal/observability"
	"pharmadoc/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var (
	systemPrompt = mustReadTemplate("templates/system.txt")
	userTemplate = template.Must(template.New("user").Funcs(templateFuncs()).Parse(mustReadTemplate("templates/user.txt")))
)

var errBlankAnswer = errors.New("generator returned an empty answer")

func mustReadTemplate(name string) string {
	data, err := promptTemplates.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
	return string(data)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"inc":      func(i int) int { return i + 1 },
		"filename": domain.FileName,
		"deref":    func(p *int) int { return *p },
		"trim":     strings.TrimSpace,
	}
}

// RenderPrompt returns the system and user prompts for query over segments.
func RenderPrompt(query string, segments []domain.Segment) (string, string, error) {
	var b strings.Builder
	err := userTemplate.Execute(&b, struct {
		Query    string
		Segments []domain.Segment
	}{Query: query, Segments: segments})
	if err != nil {
		return "", "", fmt.Errorf("render prompt: %w", err)
	}
	return systemPrompt, b.String(), nil
}

// Synthesizer generates answers grounded on assembled context.
type Synthesizer struct {
	generator port.Generator
	retry     llm.RetryConfig
	logger    *slog.Logger
}

func NewSynthesizer(generator port.Generator, retry llm.RetryConfig, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		generator: generator,
		retry:     retry,
		logger:    logger,
	}
}

// Synthesize answers query from segments. With no segments the generator is
// not called and domain.NoInformationAnswer is returned. Sources always equal
// segments.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, segments []domain.Segment) (domain.Answer, error) {
	if len(segments) == 0 {
		return domain.Answer{Text: domain.NoInformationAnswer, Sources: []domain.Segment{}}, nil
	}

	ctx, span := observability.StartSynthesizeSpan(ctx, s.generator.ModelName(), len(segments))
	defer span.End()

	system, user, err := RenderPrompt(query, segments)
	if err != nil {
		observability.RecordError(span, err)
		return domain.Answer{}, &domain.SynthesisError{Err: err}
	}

	text, attempts, err := llm.Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
		out, err := s.generator.Generate(ctx, system, user)
		if err != nil {
			s.logger.Warn("generation attempt failed", "model", s.generator.ModelName(), "error", err)
		}
		return out, err
	})
	if err != nil {
		err = &domain.SynthesisError{Attempts: attempts, Err: err}
		observability.RecordError(span, err)
		return domain.Answer{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		err := &domain.SynthesisError{Attempts: attempts, Err: errBlankAnswer}
		observability.RecordError(span, err)
		return domain.Answer{}, err
	}

	s.logger.Debug("answer generated", "attempts", attempts, "segments", len(segments), "chars", len(text))
	return domain.Answer{Text: text, Sources: segments}, nil
}
