package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillet/pkg/api"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/memory"
	"github.com/jingkaihe/skillet/pkg/metrics"
	"github.com/jingkaihe/skillet/pkg/orchestrator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the skill orchestration HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		collector := metrics.NewCollector()

		opts := []api.ServerOption{api.WithCollector(collector)}
		if dbPath := viper.GetString("memory_db"); dbPath != "" {
			store, err := memory.NewStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			opts = append(opts, api.WithMemoryStore(store))
		}

		server, err := api.NewServer(orch, &api.Config{
			Host: viper.GetString("host"),
			Port: viper.GetInt("port"),
		}, opts...)
		if err != nil {
			return err
		}

		if viper.GetBool("watch") {
			watcher, err := orchestrator.NewWatcher(orch)
			if err != nil {
				return err
			}
			defer watcher.Close()
			watcher.Start(ctx)
			logger.G(ctx).WithField("skills_dir", viper.GetString("skills_dir")).Info("watching skill directories for changes")
		}

		return server.Start(ctx)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("host", "127.0.0.1", "listen host")
	flags.Int("port", 8686, "listen port")
	flags.String("memory-db", "", "path of the session memory database (disabled when empty)")
	flags.Bool("watch", false, "reload skills and shared assets on filesystem changes")

	_ = viper.BindPFlag("host", flags.Lookup("host"))
	_ = viper.BindPFlag("port", flags.Lookup("port"))
	_ = viper.BindPFlag("memory_db", flags.Lookup("memory-db"))
	_ = viper.BindPFlag("watch", flags.Lookup("watch"))
}

func newOrchestrator() (*orchestrator.Orchestrator, error) {
	var opts []orchestrator.Option
	if p := viper.GetString("shared_prompt"); p != "" {
		opts = append(opts, orchestrator.WithSharedPrompt(p))
	}
	if p := viper.GetString("shared_tools"); p != "" {
		opts = append(opts, orchestrator.WithSharedTools(p))
	}
	if p := viper.GetString("skills_config"); p != "" {
		opts = append(opts, orchestrator.WithConfigPath(p))
	}
	return orchestrator.New(viper.GetString("skills_dir"), opts...)
}
