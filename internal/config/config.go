// Package config loads the sampler configuration from a yaml file with
// environment overrides.
package config

import (
	"time"

	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/ilyakaznacheev/cleanenv"
)

const ErrNoSources = errorsx.String("at least one source is required")

type Sampler struct {
	Period  time.Duration `yaml:"period" env:"SOCCF_SAMPLE_PERIOD" env-default:"1s"`
	Sources []Source      `yaml:"sources"`
}

// Source is a snapshot file and the prefix of the logs its samples are
// appended to.
type Source struct {
	Snapshot string `yaml:"snapshot"`
	Output   string `yaml:"output"`
	Compress *bool  `yaml:"compress"`
}

// Compressed reports if the snapshot is gzip compressed, fallback is used
// when the source does not specify.
func (t Source) Compressed(fallback bool) bool {
	if t.Compress == nil {
		return fallback
	}

	return *t.Compress
}

// Load the sampler configuration stored at path.
func Load(path string) (cfg Sampler, err error) {
	if err = cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, errorsx.Wrapf(err, "unable to read configuration: %s", path)
	}

	if len(cfg.Sources) == 0 {
		return cfg, errorsx.UserFriendly(errorsx.Wrapf(ErrNoSources, "invalid configuration: %s", path))
	}

	for idx, s := range cfg.Sources {
		if s.Snapshot == "" {
			return cfg, errorsx.UserFriendly(errorsx.Errorf("invalid configuration: %s: source %d is missing a snapshot", path, idx))
		}

		if s.Output == "" {
			cfg.Sources[idx].Output = s.Snapshot
		}
	}

	return cfg, nil
}
