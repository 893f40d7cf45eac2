package main

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"batchcognito/internal/adapters/directory/cognito"
	"batchcognito/internal/core/directory"
	"batchcognito/internal/core/version"
	"batchcognito/internal/modkit"
	"batchcognito/internal/platform/config"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newDirectory builds the directory client; tests swap it for a fake
var newDirectory = func(ctx context.Context, opts cognito.Options) (directory.Client, error) {
	c, err := cognito.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// globals are the persistent flags shared by every command
type globals struct {
	poolID     string
	region     string
	endpoint   string
	configPath string
	verbose    int
	logFormat  string
}

type app struct {
	g      globals
	stdout io.Writer
	cfg    config.Conf
}

// runEnv is what a command needs once flags and config are resolved
type runEnv struct {
	ctx    context.Context
	runID  string
	poolID string
	deps   modkit.Deps
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	root := &cobra.Command{
		Use:           "batchcognito",
		Short:         "Snapshot a Cognito user pool and bulk manage group membership by email",
		Version:       version.Info().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.g.poolID, "pool-id", "", "Cognito user pool id, e.g. eu-west-1_AbCdEf (env COGNITO_USER_POOL_ID)")
	pf.StringVar(&a.g.region, "region", "", "AWS region (default: derived from the pool id, then AWS_REGION)")
	pf.StringVar(&a.g.endpoint, "endpoint", "", "override the Cognito endpoint URL (local emulators)")
	pf.StringVar(&a.g.configPath, "config", "", "TOML profile file; environment variables win over it")
	pf.CountVarP(&a.g.verbose, "verbose", "v", "raise log verbosity (-v debug, -vv trace)")
	pf.StringVar(&a.g.logFormat, "log-format", "", "log format: console or json (env LOG_FORMAT)")

	root.AddCommand(
		newSyncCmd(a),
		newGroupsCmd(a, directory.OpAdd),
		newGroupsCmd(a, directory.OpRemove),
	)
	return root
}

// init sets up logging and loads the profile; runs before any subcommand
func (a *app) init() error {
	opts := logger.FromEnv().WithVerbosity(a.g.verbose)
	switch f := strings.ToLower(strings.TrimSpace(a.g.logFormat)); f {
	case "":
	case "console", "json":
		opts.Format = f
	default:
		return withCode(exitUsage, perr.WithField(perr.InvalidArgf("unknown log format %q (want console or json)", f), "log-format"))
	}
	if opts.Service == "" {
		opts.Service = version.Info().Service
	}
	logger.Init(opts)

	cfg, err := config.Load(a.g.configPath, envPrefix)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.cfg = cfg
	if a.g.configPath != "" {
		logger.Get().Debug().Str("path", a.g.configPath).Strs("keys", cfg.Keys()).Msg("profile loaded")
	}
	return nil
}

// setup resolves the pool, tags the run and connects the directory
func (a *app) setup(ctx context.Context) (runEnv, error) {
	opts := cognito.FromConfig(a.cfg).Merge(cognito.Options{
		PoolID:   a.g.poolID,
		Region:   a.g.region,
		Endpoint: a.g.endpoint,
	})
	if err := opts.Validate(); err != nil {
		return runEnv{}, withCode(exitUsage, err)
	}

	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID, opts.PoolID)

	dir, err := newDirectory(ctx, opts)
	if err != nil {
		return runEnv{}, withCode(exitFatal, err)
	}

	log := logger.Named("cli")
	log.Debug().Str("run_id", runID).Str("pool_id", opts.PoolID).Msg("directory ready")

	return runEnv{
		ctx:    ctx,
		runID:  runID,
		poolID: opts.PoolID,
		deps: modkit.Deps{
			Log: *log,
			Cfg: a.cfg,
			Dir: dir,
		},
	}, nil
}

// parseTimeout accepts Go durations ("90s", "2m") or bare seconds ("90")
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, perr.WithField(perr.InvalidArgf("timeout must not be negative"), "timeout")
		}
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil || secs < 0 {
		return 0, perr.WithField(perr.InvalidArgf("invalid timeout %q (use 90, 90s or 2m)", s), "timeout")
	}
	return time.Duration(secs) * time.Second, nil
}
