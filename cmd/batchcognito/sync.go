package main

import (
	"batchcognito/internal/modkit"
	"batchcognito/internal/modkit/module"
	"batchcognito/internal/platform/logger"
	"batchcognito/internal/services/identity/domain"
	identitymod "batchcognito/internal/services/identity/module"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type syncOptions struct {
	file    string
	timeout string

	// accepted for command-line compatibility with add/del; pagination is sequential
	groups      []string
	concurrency int
}

func newSyncCmd(a *app) *cobra.Command {
	var o syncOptions
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"build-index"},
		Short:   "Snapshot every user of the pool into a username,email CSV index",
		Long: "Walks the whole user pool and writes one username,email line per user.\n" +
			"With --file the index is replaced atomically; without it the CSV goes to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.file, "file", "f", "", "output CSV path (default: stdout)")
	f.StringVar(&o.timeout, "timeout", "", "overall deadline, e.g. 90, 90s or 5m (default: none)")
	f.StringArrayVarP(&o.groups, "group", "g", nil, "ignored by sync")
	f.IntVar(&o.concurrency, "concurrency", 0, "ignored by sync")
	_ = f.MarkHidden("group")
	_ = f.MarkHidden("concurrency")
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "emails-file":
			name = "file"
		case "groups":
			name = "group"
		}
		return pflag.NormalizedName(name)
	})
	return cmd
}

func (a *app) runSync(cmd *cobra.Command, o syncOptions) error {
	timeout, err := parseTimeout(o.timeout)
	if err != nil {
		return withCode(exitUsage, err)
	}
	env, err := a.setup(cmd.Context())
	if err != nil {
		return err
	}

	if len(o.groups) > 0 || o.concurrency > 0 {
		logger.C(env.ctx).Warn().Strs("groups", o.groups).Int("concurrency", o.concurrency).
			Msg("sync ignores --group and --concurrency; pages are listed one after another")
	}

	mod, err := identitymod.New(env.deps, identitymod.Options{Timeout: timeout})
	if err != nil {
		return withCode(exitUsage, err)
	}
	modkit.MountAll(nil, mod)
	syncer, ok := module.PortsOf[domain.SyncPort](mod)
	if !ok {
		return withCode(exitFatal, errPortsMissing(mod.Name()))
	}

	var res domain.SyncResult
	if o.file == "" || o.file == "-" {
		res, err = syncer.SyncToWriter(env.ctx, a.stdout)
	} else {
		res, err = syncer.SyncToFile(env.ctx, o.file)
	}
	if err != nil {
		return withCode(exitFatal, err)
	}

	logger.C(env.ctx).Info().
		Str("dest", res.Dest).
		Int("pages", res.Pages).
		Int("records", res.Stats.Records).
		Msg("index written")
	return nil
}
