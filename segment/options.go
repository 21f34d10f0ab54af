package segment

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/caselens/core"
)

// DefaultSkipTags lists paragraph tags that describe procedure or parties
// rather than the facts of a case. Their paragraphs are not indexed.
var DefaultSkipTags = []string{
	"书记员", "审判人员", "judges", "basics", "party_info", "附",
	"defendant_plea", "plaintiff_claims", "审判法官", "court_consider",
	"当事人信息", "基础信息", "本院认为",
}

// optionalFields are the modalities an IndexSegmenter can emit besides paras.
var optionalFields = map[core.Modality]bool{
	core.Title:      true,
	core.Causes:     true,
	core.Court:      true,
	core.DocType:    true,
	core.TopCause:   true,
	core.TrialRound: true,
	core.Name:       true,
	core.CaseNumber: true,
}

type settings struct {
	truncator     *Truncator
	skipTags      map[string]struct{}
	fields        map[core.Modality]bool
	queryModality core.Modality
	logger        *slog.Logger
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{
		truncator:     NewTruncator(),
		skipTags:      make(map[string]struct{}, len(DefaultSkipTags)),
		fields:        map[core.Modality]bool{},
		queryModality: core.Content,
		logger:        slog.Default(),
	}
	for _, tag := range DefaultSkipTags {
		s.skipTags[tag] = struct{}{}
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Option configures a segmenter.
type Option func(*settings) error

// WithMaxLength sets the maximum fragment length in runes.
func WithMaxLength(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("%w: max length %d", ErrInvalidOption, n)
		}
		s.truncator.MaxLength = n
		return nil
	}
}

// WithTruncation sets the truncation direction of one modality.
func WithTruncation(m core.Modality, d Direction) Option {
	return func(s *settings) error {
		if err := core.ValidateModality(m); err != nil {
			return err
		}
		s.truncator.Directions[m] = d
		return nil
	}
}

// WithSkipTags replaces the list of paragraph tags that are not indexed.
func WithSkipTags(tags ...string) Option {
	return func(s *settings) error {
		s.skipTags = make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			s.skipTags[tag] = struct{}{}
		}
		return nil
	}
}

// WithFields enables optional case fields on an IndexSegmenter. Enabling
// core.Title also emits title_subsentence sub-fragments.
func WithFields(modalities ...core.Modality) Option {
	return func(s *settings) error {
		for _, m := range modalities {
			if !optionalFields[m] {
				return fmt.Errorf("%w: %s is not an optional case field", ErrInvalidOption, m)
			}
			s.fields[m] = true
		}
		return nil
	}
}

// WithQueryModality sets the modality of query fragments. Default is core.Content.
func WithQueryModality(m core.Modality) Option {
	return func(s *settings) error {
		if err := core.ValidateModality(m); err != nil {
			return err
		}
		s.queryModality = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}
