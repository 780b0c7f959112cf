package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/shorty/internal/app/model"
	"github.com/sifan077/shorty/internal/app/repository"
	infraPrometheus "github.com/sifan077/shorty/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ErrLongURLRequired signals a missing or empty longUrl.
var ErrLongURLRequired = errors.New("longUrl is required")

const publishTimeout = 2 * time.Second

// Shortener defines behaviour-level operations on url mappings.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (*model.URLMapping, error)
	Resolve(ctx context.Context, shortCode string, visit Visit) (string, error)
	Stats(ctx context.Context, shortCode string) (*Stats, error)
}

// Visit describes the client following a short link.
type Visit struct {
	IP        string
	UserAgent string
	Referer   string
}

// Stats summarises one mapping.
type Stats struct {
	ShortCode string    `json:"shortCode"`
	LongURL   string    `json:"longUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Visits    int64     `json:"visits"`
}

// ShortenerDeps groups dependencies required by the shortener.
type ShortenerDeps struct {
	Logger   *zap.Logger
	Mappings repository.MappingRepository
	Visits   repository.VisitRepository
	Codes    *CodeGenerator
	Events   VisitPublisher
	Metrics  *infraPrometheus.Metrics

	// MaxAttempts bounds inserts per request when generated codes collide.
	MaxAttempts int
}

type shortener struct {
	logger      *zap.Logger
	mappings    repository.MappingRepository
	visits      repository.VisitRepository
	codes       *CodeGenerator
	events      VisitPublisher
	metrics     *infraPrometheus.Metrics
	maxAttempts int
}

// NewShortener returns a Shortener backed by the given dependencies.
func NewShortener(deps ShortenerDeps) Shortener {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	codes := deps.Codes
	if codes == nil {
		codes = NewCodeGenerator(DefaultCodeBytes)
	}
	maxAttempts := deps.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &shortener{
		logger:      logger,
		mappings:    deps.Mappings,
		visits:      deps.Visits,
		codes:       codes,
		events:      deps.Events,
		metrics:     deps.Metrics,
		maxAttempts: maxAttempts,
	}
}

func (s *shortener) Shorten(ctx context.Context, longURL string) (*model.URLMapping, error) {
	if longURL == "" {
		s.metrics.ObserveShorten(infraPrometheus.OutcomeInvalid)
		return nil, ErrLongURLRequired
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			s.metrics.ObserveShorten(infraPrometheus.OutcomeError)
			return nil, err
		}

		mapping, err := s.mappings.Insert(ctx, longURL, code)
		if err == nil {
			s.codes.Remember(mapping.ShortCode)
			s.metrics.ObserveShorten(infraPrometheus.OutcomeCreated)
			return mapping, nil
		}
		if !errors.Is(err, repository.ErrUniqueViolation) {
			s.metrics.ObserveShorten(infraPrometheus.OutcomeError)
			return nil, fmt.Errorf("insert mapping: %w", err)
		}

		s.codes.Remember(code)
		s.metrics.IncCollision()
		s.logger.Warn("short code collision",
			zap.String("code", code),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
		)
		lastErr = err
	}

	s.metrics.ObserveShorten(infraPrometheus.OutcomeError)
	return nil, fmt.Errorf("insert mapping after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *shortener) Resolve(ctx context.Context, shortCode string, visit Visit) (string, error) {
	longURL, err := s.mappings.Lookup(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.ObserveResolve(infraPrometheus.OutcomeMiss)
			return "", err
		}
		s.metrics.ObserveResolve(infraPrometheus.OutcomeError)
		return "", fmt.Errorf("lookup mapping: %w", err)
	}

	s.metrics.ObserveResolve(infraPrometheus.OutcomeHit)
	if s.events != nil {
		go s.publishVisit(shortCode, visit)
	}
	return longURL, nil
}

func (s *shortener) Stats(ctx context.Context, shortCode string) (*Stats, error) {
	mapping, err := s.mappings.Get(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}

	stats := &Stats{
		ShortCode: mapping.ShortCode,
		LongURL:   mapping.LongURL,
		CreatedAt: mapping.CreatedAt,
	}
	if s.visits != nil {
		count, err := s.visits.CountByCode(ctx, shortCode)
		if err != nil {
			return nil, fmt.Errorf("count visits: %w", err)
		}
		stats.Visits = count
	}
	return stats, nil
}

// publishVisit runs detached from the request so a slow broker never delays
// the redirect.
func (s *shortener) publishVisit(shortCode string, visit Visit) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := &model.VisitEvent{
		ShortCode: shortCode,
		IP:        visit.IP,
		UserAgent: visit.UserAgent,
		Referer:   visit.Referer,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish visit event", zap.Error(err), zap.String("code", shortCode))
	}
}
