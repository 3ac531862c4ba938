package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"

	"code.uber.internal/infra/offermatcher/internal/health"
	"code.uber.internal/infra/offermatcher/internal/metrics"
	"code.uber.internal/infra/offermatcher/internal/offer"
)

// SimulatorConfig tunes the synthetic offer producer and matcher pool
// started by cmd/offermatcher when no live cluster manager is
// attached. It has no counterpart in the core; see
// cmd/offermatcher/simulator.go.
type SimulatorConfig struct {
	MatcherCount        int           `yaml:"matcher_count" validate:"min=0"`
	OfferInterval       time.Duration `yaml:"offer_interval"`
	OfferDeadline       time.Duration `yaml:"offer_deadline"`
	InitialLaunchTokens int64         `yaml:"initial_launch_tokens"`
}

// Config is the root configuration for the offermatcher binary.
type Config struct {
	Offer     offer.Config    `yaml:"offer"`
	Metrics   metrics.Config  `yaml:"metrics"`
	Health    health.Config   `yaml:"health"`
	Simulator SimulatorConfig `yaml:"simulator"`
	HTTPPort  int             `yaml:"http_port" validate:"min=1"`
}

// ValidationError wraps a validator.v2 ErrorMap with an Error() string
// that names every offending field, the way common/config/parse.go
// does for Peloton binaries.
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField returns the validation error for field, if any.
func (e ValidationError) ErrForField(field string) error {
	return e.errorMap[field]
}

func (e ValidationError) Error() string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "validation failed")
	for field, err := range e.errorMap {
		fmt.Fprintf(&w, "   %s: %v\n", field, err)
	}
	return w.String()
}

// Parse loads configFiles in order, merging them on top of each
// other, unmarshals the result into cfg, and validates it.
func Parse(cfg *Config, configFiles ...string) error {
	if len(configFiles) == 0 {
		return errors.New("no config files to load")
	}
	for _, fname := range configFiles {
		data, err := ioutil.ReadFile(fname)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return err
		}
	}

	if err := validator.Validate(cfg); err != nil {
		if errMap, ok := err.(validator.ErrorMap); ok {
			return ValidationError{errorMap: errMap}
		}
		return err
	}
	return nil
}
