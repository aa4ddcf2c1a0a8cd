package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/RyanBlaney/edf2cfs/configs"
	"github.com/RyanBlaney/edf2cfs/pkg/montage"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/afero"
)

// DiscoverInputs returns the files to convert: the explicit files in the
// order given, then every .edf file under dir (case-insensitive), in
// lexical order. Duplicates are dropped.
func DiscoverInputs(fs afero.Fs, files []string, dir string) ([]string, error) {
	inputs := make([]string, 0, len(files))
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			inputs = append(inputs, p)
		}
	}

	for _, f := range files {
		add(f)
	}

	if dir != "" {
		err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.EqualFold(filepath.Ext(path), recording.DefaultExtension) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no EDF files to convert")
	}
	return inputs, nil
}

// configuredRoles builds the role map from the channel labels in config,
// filling empty labels from the montage file when one is named.
func configuredRoles(fs afero.Fs, cfg configs.ChannelsConfig) (montage.RoleMap, error) {
	m := montage.NewRoleMap(cfg.EEGLeft, cfg.EEGRight, cfg.EOGLeft, cfg.EOGRight)
	if cfg.MontageFile == "" || m.Complete() {
		return m, nil
	}

	fromFile, err := montage.Load(fs, cfg.MontageFile)
	if err != nil {
		return m, err
	}
	for _, role := range m.Missing() {
		m = m.With(role, fromFile.Label(role))
	}
	return m, nil
}

// newMetricsClient returns a StatsD client, or a no-op client when no
// address is configured or the client cannot be created.
func newMetricsClient(cfg configs.MetricsConfig, logger logging.Logger) statsd.ClientInterface {
	if cfg.StatsdAddr == "" {
		return &statsd.NoOpClient{}
	}

	client, err := statsd.New(cfg.StatsdAddr,
		statsd.WithNamespace(cfg.Namespace),
		statsd.WithTags(slices.Clone(cfg.Tags)),
	)
	if err != nil {
		logger.Warn("Metrics disabled", logging.Fields{
			"statsd_addr": cfg.StatsdAddr,
			"error":       err.Error(),
		})
		return &statsd.NoOpClient{}
	}
	return client
}
