// Package scenario reads scripted scraping sessions from YAML files.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"common-library/internal/domain/entity"
	"common-library/pkg/scraping"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is one session: the aliases, the steps, and the aliases whose
// text is reported afterwards.
type Scenario struct {
	Name       string               `yaml:"name"`
	Headless   *bool                `yaml:"headless"`
	WindowSize *entity.WindowSize   `yaml:"window_size"`
	DomDefs    map[string]string    `yaml:"dom_defs"`
	Operations []scraping.Operation `yaml:"operations"`
	Extract    []string             `yaml:"extract"`
	Retry      *Retry               `yaml:"retry"`
}

type Retry struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every alias the scenario uses is defined, so a typo
// fails before a browser is started.
func (s *Scenario) Validate() error {
	if len(s.Operations) == 0 && len(s.Extract) == 0 {
		return fmt.Errorf("%w: no operations or extracts", ErrInvalidScenario)
	}

	for i, op := range s.Operations {
		switch op.Method {
		case scraping.Go:
			if op.Target == "" {
				return fmt.Errorf("%w: operation %d: go needs a target url", ErrInvalidScenario, i)
			}
		case scraping.Click, scraping.Fill:
			if _, ok := s.DomDefs[op.Target]; !ok {
				return fmt.Errorf("%w: operation %d: %w: %s", ErrInvalidScenario, i, scraping.ErrUnknownTarget, op.Target)
			}
		}
	}

	for _, alias := range s.Extract {
		if _, ok := s.DomDefs[alias]; !ok {
			return fmt.Errorf("%w: extract: %w: %s", ErrInvalidScenario, scraping.ErrUnknownTarget, alias)
		}
	}

	if s.WindowSize != nil && (s.WindowSize.Width <= 0 || s.WindowSize.Height <= 0) {
		return fmt.Errorf("%w: window_size must be positive", ErrInvalidScenario)
	}
	return nil
}

// Apply overlays the scenario onto opt; fields the scenario leaves unset
// keep the values already in opt.
func (s *Scenario) Apply(opt scraping.ScrapeOption) scraping.ScrapeOption {
	opt.DomDefs = s.DomDefs
	if s.Headless != nil {
		opt.Headless = s.Headless
	}
	if s.WindowSize != nil {
		opt.WindowSize = s.WindowSize
	}
	if s.Retry != nil {
		if s.Retry.Attempts > 0 {
			opt.Retry.Attempts = s.Retry.Attempts
		}
		if s.Retry.Delay != 0 {
			opt.Retry.Delay = s.Retry.Delay
		}
	}
	return opt
}
