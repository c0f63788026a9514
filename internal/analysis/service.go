// Package analysis turns submitted text into a dominant emotion.
//
// Text is lower-cased and whitespace-split, the tokens are scored by a
// sentiment.Scorer, and the score is thresholded by sentiment.Classify.
// An optional ResultCache memoises scores and optional Recorders receive
// one AnalysisRecord per analysis. Neither can change a response.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spacesedan/emotiflow/internal/metrics"
	"github.com/spacesedan/emotiflow/internal/models"
	"github.com/spacesedan/emotiflow/internal/sentiment"
)

// DEFAULT_CACHE_TIMEOUT applies when Options.CacheTimeout is unset.
const DEFAULT_CACHE_TIMEOUT = 250 * time.Millisecond

var (
	ErrNoText      = errors.New("no text provided")
	ErrTextTooLong = errors.New("text too long")
)

// ResultCache memoises scores per token stream.
type ResultCache interface {
	Lookup(ctx context.Context, tokens []string) (float64, bool)
	Store(ctx context.Context, tokens []string, score float64) error
}

// Recorder receives a record of every completed analysis.
type Recorder interface {
	Name() string
	Record(ctx context.Context, record models.AnalysisRecord) error
}

type Options struct {
	StripMarkdown bool
	MaxTextLength int
	Cache         ResultCache
	// CacheHealthy gates Cache; while it reports false the scorer is used
	// directly. Nil means always healthy.
	CacheHealthy func() bool
	// CacheTimeout bounds the lookup and the store together. On expiry the
	// lookup counts as a miss and the store is abandoned.
	CacheTimeout time.Duration
	Recorders    []Recorder
}

type Service struct {
	scorer    sentiment.Scorer
	opts      Options
	validate  *validator.Validate
	maxLength string
	now       func() time.Time
}

func NewService(scorer sentiment.Scorer, opts Options) *Service {
	s := &Service{
		scorer:   scorer,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	if s.opts.CacheTimeout <= 0 {
		s.opts.CacheTimeout = DEFAULT_CACHE_TIMEOUT
	}
	if opts.MaxTextLength > 0 {
		s.maxLength = fmt.Sprintf("max=%d", opts.MaxTextLength)
	}
	return s
}

func (s *Service) Analyze(ctx context.Context, text string) (models.AnalysisResult, error) {
	start := s.now()

	if err := s.validateText(text); err != nil {
		return models.AnalysisResult{}, err
	}

	input := text
	if s.opts.StripMarkdown {
		input = sentiment.PlainText(text)
	}

	tokens := sentiment.Tokenize(input)
	score, cached := s.score(ctx, tokens)
	emotion := sentiment.Classify(score)
	formatted := sentiment.FormatScore(score)

	result := models.AnalysisResult{
		Emotion: string(emotion),
		Scores:  map[string]string{string(emotion): formatted},
	}

	metrics.AnalysesTotal.WithLabelValues(result.Emotion).Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	s.record(ctx, models.AnalysisRecord{
		ID:             uuid.NewString(),
		Emotion:        result.Emotion,
		Score:          score,
		FormattedScore: formatted,
		TokenCount:     len(tokens),
		TextLength:     utf8.RuneCountInString(text),
		Cached:         cached,
		CreatedAt:      start.UTC(),
	})

	slog.DebugContext(ctx, "[Analyzer] Text analyzed",
		slog.String("emotion", result.Emotion),
		slog.String("score", formatted),
		slog.Int("tokens", len(tokens)),
		slog.Bool("cached", cached))

	return result, nil
}

func (s *Service) validateText(text string) error {
	req := models.AnalysisRequest{Text: strings.TrimSpace(text)}
	if err := s.validate.Struct(req); err != nil {
		metrics.RejectedRequestsTotal.WithLabelValues("empty").Inc()
		return ErrNoText
	}

	if s.maxLength != "" {
		if err := s.validate.Var(text, s.maxLength); err != nil {
			metrics.RejectedRequestsTotal.WithLabelValues("too_long").Inc()
			return ErrTextTooLong
		}
	}
	return nil
}

func (s *Service) score(ctx context.Context, tokens []string) (float64, bool) {
	if s.opts.Cache == nil || (s.opts.CacheHealthy != nil && !s.opts.CacheHealthy()) {
		return s.scorer.Score(tokens), false
	}

	cacheCtx, cancel := context.WithTimeout(ctx, s.opts.CacheTimeout)
	defer cancel()

	if score, ok := s.opts.Cache.Lookup(cacheCtx, tokens); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return score, true
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	score := s.scorer.Score(tokens)
	if cacheCtx.Err() != nil {
		return score, false
	}
	if err := s.opts.Cache.Store(cacheCtx, tokens, score); err != nil {
		slog.WarnContext(ctx, "[Analyzer] Failed to cache score",
			slog.String("error", err.Error()))
	}
	return score, false
}

func (s *Service) record(ctx context.Context, record models.AnalysisRecord) {
	for _, r := range s.opts.Recorders {
		if err := r.Record(ctx, record); err != nil {
			metrics.RecordFailuresTotal.WithLabelValues(r.Name()).Inc()
			slog.WarnContext(ctx, "[Analyzer] Failed to record analysis",
				slog.String("recorder", r.Name()),
				slog.String("id", record.ID),
				slog.String("error", err.Error()))
		}
	}
}
