package entities

import (
	"context"
	"errors"
	"strings"
)

// minLocalCategories is the fewest populated categories accepted from the local model.
const minLocalCategories = 2

// Service tries the local classifier first and falls back to the generative extractor.
// It never fails: errors become a marker on the Result.
type Service struct {
	local      Extractor
	generative Extractor
	logger     Logger
}

// NewService wires the two tiers. Either may be nil.
func NewService(local, generative Extractor, logger Logger) *Service {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Service{local: local, generative: generative, logger: logger}
}

func (s *Service) Extract(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Categories: map[string][]string{}}
	}

	if s.local != nil {
		res, err := s.local.Extract(ctx, text)
		switch {
		case err != nil:
			s.logger.Warn("local entity extraction failed, using generative model", "error", err)
		case res.Populated() < minLocalCategories:
			s.logger.Info("local entity extraction too sparse, using generative model", "categories", res.Populated())
		default:
			return res
		}
	}

	if s.generative == nil {
		return Result{Categories: map[string][]string{}, Error: MarkerExtractFailed}
	}

	res, err := s.generative.Extract(ctx, text)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return Result{Categories: map[string][]string{}, Source: SourceGenerative, Error: pe.Message}
		}
		s.logger.Error("generative entity extraction failed", "error", err)
		return Result{Categories: map[string][]string{}, Source: SourceGenerative, Error: MarkerExtractFailed}
	}
	return res
}
