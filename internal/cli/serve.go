package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sheetpack/pkg/config"
	"github.com/matzehuels/sheetpack/pkg/server"
	"github.com/matzehuels/sheetpack/pkg/storage"
)

// serveFlags holds the command-line flags for the serve command.
type serveFlags struct {
	addr     string
	mongoURI string
	database string
	noCache  bool
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP packing API",
		Long: `Run the HTTP packing API.

Routes:
  POST /v1/pack          pack posted sprite sizes and store the atlas
  GET  /v1/atlases       list stored atlases, newest first
  GET  /v1/atlases/{id}  fetch a stored atlas
  GET  /healthz          liveness
  GET  /version          build information

Atlases are kept in MongoDB when --mongo-uri (or ` + config.EnvMongoURI + `) is set,
and in memory otherwise. Layouts are cached in Redis when the project file or
` + config.EnvRedisAddr + ` selects it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, cfg, f)
			return c.runServe(cmd.Context(), cfg, f.noCache)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default: "+config.Default().Server.Addr+")")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB connection string")
	cmd.Flags().StringVar(&f.database, "database", storage.DefaultMongoDatabase, "MongoDB database")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable layout caching")

	return cmd
}

// applyServeFlags overrides server settings with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, f serveFlags) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = f.addr
	}
	if flags.Changed("mongo-uri") {
		cfg.Server.MongoURI = f.mongoURI
	}
	if flags.Changed("database") || cfg.Server.Database == "" {
		cfg.Server.Database = f.database
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = config.Default().Server.Addr
	}
}

// runServe opens the store and cache, then serves until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg *config.Config, noCache bool) error {
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			c.Logger.Warn("close store", "err", err)
		}
	}()

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
	return server.New(runner, store, c.Logger).ListenAndServe(ctx, cfg.Server.Addr)
}

// openStore connects to MongoDB when configured, else keeps atlases in memory.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Server.MongoURI == "" {
		c.Logger.Warn("no MongoDB configured, atlases are kept in memory")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.DialMongo(ctx, cfg.Server.MongoURI, cfg.Server.Database)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("connected to MongoDB", "database", cfg.Server.Database)
	return store, nil
}
