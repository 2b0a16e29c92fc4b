package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tablebook/tablebook/internal/bootstrap"
	"github.com/tablebook/tablebook/internal/config"
	"github.com/tablebook/tablebook/internal/dao"
	httpshell "github.com/tablebook/tablebook/internal/http"
	"github.com/tablebook/tablebook/internal/metrics"
	"github.com/tablebook/tablebook/internal/observability/logger"
	"github.com/tablebook/tablebook/internal/rowstore"
	_ "github.com/tablebook/tablebook/internal/rowstore/memory"
	_ "github.com/tablebook/tablebook/internal/rowstore/pg"
	_ "github.com/tablebook/tablebook/internal/rowstore/redis"
	"github.com/tablebook/tablebook/internal/security/accesstoken"
	"github.com/tablebook/tablebook/internal/security/authn"
	"github.com/tablebook/tablebook/internal/security/password"
)

const version = "0.3.0"

func main() {
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "tablebook",
		Short:         "Multi-tenant restaurant directory service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("TABLEBOOK_CONFIG"), "path to YAML config")

	root.AddCommand(serveCmd(&cfgPath), bootstrapCmd(&cfgPath), hashpwdCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context, cfgPath string) (config.Config, *wiring, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, nil, err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "tablebook",
		Version:     version,
	})
	if err := metrics.Register(nil); err != nil {
		return cfg, nil, err
	}

	store, err := rowstore.Open(ctx, cfg.Storage.Driver, rowstore.Options{
		DSN:           cfg.Storage.DSN,
		RedisAddr:     cfg.Storage.Redis.Addr,
		RedisPassword: cfg.Storage.Redis.Password,
		RedisDB:       cfg.Storage.Redis.DB,
		RedisPrefix:   cfg.Storage.Redis.Prefix,
		Consistency:   rowstore.Consistency(cfg.Storage.Consistency),
	})
	if err != nil {
		return cfg, nil, err
	}

	tenants := dao.NewTenants(store)
	users := dao.NewUsers(store, tenants)
	restaurants := dao.NewRestaurants(store, tenants)

	return cfg, &wiring{
		store:       store,
		tenants:     tenants,
		users:       users,
		restaurants: restaurants,
	}, nil
}

type wiring struct {
	store       rowstore.Store
	tenants     *dao.Tenants
	users       *dao.Users
	restaurants *dao.Restaurants
}

func (w *wiring) seed(ctx context.Context, cfg config.Config) error {
	return bootstrap.Run(ctx, bootstrap.Deps{
		Tenants:       w.tenants,
		Users:         w.users,
		Restaurants:   w.restaurants,
		AdminPassword: cfg.Bootstrap.AdminPassword,
	})
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, w, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer w.store.Close()
			defer logger.Sync() //nolint:errcheck

			if err := w.seed(ctx, cfg); err != nil {
				return err
			}

			issuer, err := accesstoken.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
			if err != nil {
				return err
			}
			resolver := authn.NewResolver(w.tenants, w.users,
				authn.WithFailureDelay(cfg.Auth.FailureDelay))

			shell := httpshell.NewServer(httpshell.Deps{
				Store:       w.store,
				Tenants:     w.tenants,
				Users:       w.users,
				Restaurants: w.restaurants,
				Resolver:    resolver,
				Issuer:      issuer,
			})

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           shell.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.L().Info("listening", logger.Path(cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

func bootstrapCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Ensure tables, the system tenant and the system admin exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, w, err := setup(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer w.store.Close()
			return w.seed(cmd.Context(), cfg)
		},
	}
}

func hashpwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashpwd <secret>",
		Short: "Hash a secret and print the stored hash material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := password.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("hash:       %s\nsalt:       %s\niterations: %d\n", info.Hash, info.Salt, info.Iterations)
			return nil
		},
	}
}
