/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/pairlab/session"
	"github.com/Seednode/pairlab/stimuli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	catalog        string
	cellSize       int
	contextTypes   []string
	feedbackDelay  time.Duration
	maxAttempts    int
	occlusions     int
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	roundTimeout   time.Duration
	rounds         int
	seed           uint64
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.feedbackDelay < 0 || c.roundTimeout < 0 || c.playerTimeout < 0 || c.sessionTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) stimulusOptions() (stimuli.Options, error) {
	cts, err := stimuli.ParseContextTypes(c.contextTypes)
	if err != nil {
		return stimuli.Options{}, err
	}

	return stimuli.Options{
		NumRounds:       c.rounds,
		ContextTypes:    cts,
		OcclusionBudget: c.occlusions,
		MaxAttempts:     c.maxAttempts,
		CellSize:        c.cellSize,
	}, nil
}

// newGenerator loads the catalog and checks it against the trial options.
// It returns the seed in use so a session can be reproduced.
func (c *Config) newGenerator() (*stimuli.Generator, uint64, error) {
	catalog, err := stimuli.LoadCatalog(c.catalog)
	if err != nil {
		return nil, 0, err
	}

	opts, err := c.stimulusOptions()
	if err != nil {
		return nil, 0, err
	}

	rng, seed, err := stimuli.NewRand(c.seed)
	if err != nil {
		return nil, 0, err
	}

	gen, err := stimuli.NewGenerator(catalog, opts, rng)
	if err != nil {
		return nil, 0, err
	}

	return gen, seed, nil
}

func (c *Config) sessionConfig() session.Config {
	return session.Config{
		FeedbackDelay: c.feedbackDelay,
		RoundTimeout:  c.roundTimeout,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PAIRLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "pairlab",
		Short:         "Pairs remote participants into speaker/listener reference games.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PAIRLAB_BIND)")
	fs.StringVar(&cfg.catalog, "catalog", "", "path to a JSON object catalog, empty for the built-in one (env: PAIRLAB_CATALOG)")
	fs.IntVar(&cfg.cellSize, "cell-size", stimuli.DefaultCellSize, "grid cell size in pixels (env: PAIRLAB_CELL_SIZE)")
	fs.StringSliceVar(&cfg.contextTypes, "context-types", []string{stimuli.DefaultContextTypes[0].String()}, "context types as context:policy:count (env: PAIRLAB_CONTEXT_TYPES)")
	fs.DurationVar(&cfg.feedbackDelay, "feedback-delay", 2*time.Second, "delay between an advance signal and the next round (env: PAIRLAB_FEEDBACK_DELAY)")
	fs.IntVar(&cfg.maxAttempts, "max-attempts", stimuli.DefaultMaxAttempts, "retry ceiling for each sampling step (env: PAIRLAB_MAX_ATTEMPTS)")
	fs.IntVar(&cfg.occlusions, "occlusions", stimuli.DefaultOcclusionBudget, "occluded cells per role and trial (env: PAIRLAB_OCCLUSIONS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before silent connections are dropped (env: PAIRLAB_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PAIRLAB_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PAIRLAB_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PAIRLAB_PROFILE)")
	fs.DurationVar(&cfg.roundTimeout, "round-timeout", 0, "advance rounds left unanswered this long, 0 to disable (env: PAIRLAB_ROUND_TIMEOUT)")
	fs.IntVar(&cfg.rounds, "rounds", 8, "rounds per session, a multiple of catalog size times context types (env: PAIRLAB_ROUNDS)")
	fs.Uint64Var(&cfg.seed, "seed", 0, "random seed for trial generation, 0 for a random one (env: PAIRLAB_SEED)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle sessions are ended (env: PAIRLAB_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PAIRLAB_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PAIRLAB_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PAIRLAB_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PAIRLAB_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("pairlab v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
