package main

import (
	"context"
	"time"

	"batchcognito/internal/core/directory"
	"batchcognito/internal/modkit"
	"batchcognito/internal/modkit/module"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/platform/logger"
	phttp "batchcognito/internal/platform/net/http"
	"batchcognito/internal/platform/net/middleware"
	groupsmod "batchcognito/internal/services/groups/module"
	identitymod "batchcognito/internal/services/identity/module"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type groupsOptions struct {
	index        string
	emails       string
	groups       []string
	concurrency  int
	timeout      string
	progressAddr string
	output       string
}

func errPortsMissing(name string) error {
	return perr.Newf(perr.ErrorCodeUnknown, "module %s did not register its ports", name)
}

func newGroupsCmd(a *app, op directory.Operation) *cobra.Command {
	var o groupsOptions
	cmd := &cobra.Command{
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGroups(cmd, op, o)
		},
	}
	switch op {
	case directory.OpAdd:
		cmd.Use = "add"
		cmd.Aliases = []string{"bulk-add"}
		cmd.Short = "Add every listed email's user to the given groups"
	default:
		cmd.Use = "del"
		cmd.Aliases = []string{"bulk-remove", "remove"}
		cmd.Short = "Remove every listed email's user from the given groups"
	}

	f := cmd.Flags()
	f.StringVarP(&o.index, "index", "f", "", "index CSV written by sync (required)")
	f.StringVar(&o.emails, "emails-file", "", "target emails, one per line; - reads stdin (required)")
	f.StringArrayVarP(&o.groups, "group", "g", nil, "group name; repeat for several groups (required)")
	f.IntVar(&o.concurrency, "concurrency", 0, "parallel directory calls (default 1, env GROUPS_CONCURRENCY)")
	f.StringVar(&o.timeout, "timeout", "", "overall deadline, e.g. 90, 90s or 5m (default: none)")
	f.StringVar(&o.progressAddr, "progress-addr", "", "serve GET /progress and /healthz on this address while running")
	f.StringVarP(&o.output, "output", "o", "text", "summary format: text or json")
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "groups":
			name = "group"
		case "file":
			name = "index"
		}
		return pflag.NormalizedName(name)
	})
	return cmd
}

func (a *app) runGroups(cmd *cobra.Command, op directory.Operation, o groupsOptions) error {
	if o.output != "text" && o.output != "json" {
		return withCode(exitUsage, perr.WithField(perr.InvalidArgf("unknown output %q (want text or json)", o.output), "output"))
	}
	switch {
	case o.index == "":
		return withCode(exitUsage, perr.WithField(perr.InvalidArgf("--index is required (write one with sync)"), "index"))
	case o.emails == "":
		return withCode(exitUsage, perr.WithField(perr.InvalidArgf("--emails-file is required"), "emails-file"))
	case len(o.groups) == 0:
		return withCode(exitUsage, perr.WithField(perr.InvalidArgf("--group is required (repeat for several groups)"), "group"))
	}
	if o.concurrency < 0 {
		return withCode(exitUsage, perr.WithField(perr.InvalidArgf("concurrency must be at least 1"), "concurrency"))
	}
	timeout, err := parseTimeout(o.timeout)
	if err != nil {
		return withCode(exitUsage, err)
	}
	env, err := a.setup(cmd.Context())
	if err != nil {
		return err
	}

	idm, err := identitymod.New(env.deps, identitymod.Options{})
	if err != nil {
		return withCode(exitUsage, err)
	}
	grm, err := groupsmod.New(env.deps, groupsmod.Options{Concurrency: o.concurrency, Timeout: timeout})
	if err != nil {
		return withCode(exitUsage, err)
	}

	stopServer := func() {}
	if o.progressAddr != "" {
		if stopServer, err = serveProgress(env, o.progressAddr, idm, grm); err != nil {
			return withCode(exitFatal, err)
		}
	} else {
		modkit.MountAll(nil, idm, grm)
	}
	defer stopServer()

	ids, ok := module.PortsAs[identitymod.Ports](idm.Name())
	if !ok {
		return withCode(exitFatal, errPortsMissing(idm.Name()))
	}
	grp, ok := module.PortsAs[groupsmod.Ports](grm.Name())
	if !ok {
		return withCode(exitFatal, errPortsMissing(grm.Name()))
	}

	logger.C(env.ctx).Debug().Strs("modules", module.Names()).Msg("modules wired")

	ix, err := ids.Loader.LoadIndex(env.ctx, o.index)
	if err != nil {
		return withCode(exitFatal, err)
	}
	targets, err := grp.Targets.ReadTargets(env.ctx, o.emails)
	if err != nil {
		return withCode(exitFatal, err)
	}

	sum, err := grp.Executor.Run(env.ctx, ix, targets, o.groups, op)
	if err != nil {
		return err
	}
	if err := writeSummary(a.stdout, o.output, sum); err != nil {
		return withCode(exitFatal, err)
	}
	if !sum.OK() {
		return withCode(exitProblems, perr.Newf(perr.ErrorCodeUnknown,
			"%d of %d task(s) did not succeed", sum.Counts.Total()-sum.Counts.Succeeded, sum.Counts.Total()))
	}
	return nil
}

// serveProgress mounts the modules on a local HTTP server for the run's lifetime
func serveProgress(env runEnv, addr string, mods ...modkit.Module) (func(), error) {
	srv := phttp.NewServer(addr, func(m *chi.Mux) {
		m.Use(middleware.WithRun(env.runID, env.poolID))
		m.Use(middleware.RecoverJSON)
		m.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}))
	})
	modkit.MountAll(srv.Router(), mods...)
	if err := srv.Listen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(env.ctx))
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	logger.C(env.ctx).Info().Str("addr", srv.Addr()).Msg("progress endpoint listening")
	return func() {
		cancel()
		if err := <-done; err != nil {
			logger.C(env.ctx).Warn().Err(err).Msg("progress endpoint shutdown")
		}
	}, nil
}
