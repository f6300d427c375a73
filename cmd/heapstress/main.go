// The heapstress command drives the heap collections through a
// symbol-interning workload on a configurable heap and reports what
// the collector did.
//
// Settings come from flags, from HEAPSTRESS_* environment variables
// (for example HEAPSTRESS_NURSERY_SIZE) and from an optional config
// file, in that order of precedence.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rogpeppe/heapcoll/arena"
)

type config struct {
	Heap        arena.Config `mapstructure:",squash"`
	Symbols     int          `mapstructure:"symbols"`
	RemoveEvery int          `mapstructure:"remove_every"`
	LogLevel    string       `mapstructure:"log_level"`
}

func main() {
	if err := newCommand(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

// newCommand returns the root command. Its flags are bound to v,
// which the command reads its settings from.
func newCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "heapstress",
		Short:        "Exercise the heap collections under a relocating collector",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runCommand(cmd, cfg)
		},
	}
	flags := cmd.Flags()
	flags.String("config", "", "config file (YAML, TOML or JSON)")
	flags.Int("symbols", 10000, "number of distinct symbols to intern")
	flags.Int("remove_every", 3, "remove every n'th symbol; zero removes none")
	flags.Int("nursery_size", arena.DefaultNurserySize, "allocations between minor collections")
	flags.Int("major_interval", arena.DefaultMajorInterval, "minor collections between major collections")
	flags.Int("max_objects", 0, "live object limit; zero means unlimited")
	flags.Bool("stress", false, "collect before every allocation")
	flags.String("log_level", "info", "log level")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("HEAPSTRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd
}

func loadConfig(v *viper.Viper) (config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("cannot read config: %v", err)
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("cannot decode config: %v", err)
	}
	if cfg.Symbols < 0 || cfg.RemoveEvery < 0 {
		return config{}, fmt.Errorf("symbols and remove_every must not be negative")
	}
	return cfg, nil
}

func runCommand(cmd *cobra.Command, cfg config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		Level(level).
		With().Timestamp().Logger()

	reg := prometheus.NewRegistry()
	cfg.Heap.Logger = &logger
	cfg.Heap.Registerer = reg
	h := arena.New(cfg.Heap)

	r, err := run(h, workload{
		Symbols:     cfg.Symbols,
		RemoveEvery: cfg.RemoveEvery,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("workload failed")
		return err
	}
	logger.Info().
		Int("interned", r.Interned).
		Int("removed", r.Removed).
		Int("remaining", r.Remaining).
		Msg("workload complete")

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			}
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(out, "%s %v\n", name, value)
		}
	}
	return nil
}
