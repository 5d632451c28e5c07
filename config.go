/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Seednode/janken/tournament"
)

type Config struct {
	bind           string
	countdownSteps int
	countdownTick  time.Duration
	metrics        bool
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	resultDelay    time.Duration
	revealDelay    time.Duration
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	logger *zap.SugaredLogger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.countdownSteps < 0 {
		return fmt.Errorf("invalid countdown steps (must be 0 or more): %d", c.countdownSteps)
	}
	if c.countdownTick < 0 || c.revealDelay < 0 || c.resultDelay < 0 {
		return errors.New("round delays must not be negative")
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return fmt.Errorf("invalid rate limit: %v/s with burst %d", c.rateLimit, c.rateBurst)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) timing() tournament.Timing {
	return tournament.Timing{
		CountdownSteps: c.countdownSteps,
		CountdownTick:  c.countdownTick,
		RevealDelay:    c.revealDelay,
		ResultDelay:    c.resultDelay,
	}
}

func (c *Config) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(c.rateLimit), c.rateBurst)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("JANKEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "janken",
		Short:         "A rock-paper-scissors elimination tournament, served as a single webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			cfg.logger = logger

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	defaults := tournament.DefaultTiming()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: JANKEN_BIND)")
	fs.IntVar(&cfg.countdownSteps, "countdown-steps", defaults.CountdownSteps, "countdown ticks before moves are revealed (env: JANKEN_COUNTDOWN_STEPS)")
	fs.DurationVar(&cfg.countdownTick, "countdown-tick", defaults.CountdownTick, "duration of each countdown tick (env: JANKEN_COUNTDOWN_TICK)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "serve prometheus metrics at /metrics (env: JANKEN_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: JANKEN_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: JANKEN_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: JANKEN_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 5, "websocket messages a client may send in a burst (env: JANKEN_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 4, "sustained websocket messages per second per client (env: JANKEN_RATE_LIMIT)")
	fs.DurationVar(&cfg.resultDelay, "result-delay", defaults.ResultDelay, "time a round result is shown before the next round (env: JANKEN_RESULT_DELAY)")
	fs.DurationVar(&cfg.revealDelay, "reveal-delay", defaults.RevealDelay, "time moves are shown before the round is resolved (env: JANKEN_REVEAL_DELAY)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: JANKEN_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: JANKEN_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: JANKEN_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: JANKEN_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: JANKEN_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("janken v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
