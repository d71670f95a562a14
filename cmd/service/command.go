package service

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dashmart-ai/dashmart/app/core"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "support chat service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	startCron(app)
	serve(app)
	return nil
}

// startCron 每天清理一次 redis 中过期的 session 持久化副本。
func startCron(app *core.Core) {
	c := cron.New()
	if _, err := c.AddFunc("0 4 * * *", func() {
		purged, err := app.Session().PurgeExpiredDurable(context.Background())
		if err != nil {
			slog.Error("failed to purge expired durable sessions", slog.String("error", err.Error()))
			return
		}
		slog.Info("purged expired durable sessions", slog.Int("count", purged))
	}); err != nil {
		panic(err)
	}
	c.Start()
}
