package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/internal/metrics"
	"github.com/matzehuels/mapstyle/internal/server"
	"github.com/matzehuels/mapstyle/pkg/cache"
	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/session"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// Environment variables read by serve when the matching flag is not set.
const (
	envAddr       = "MAPSTYLE_ADDR"
	envRedisAddr  = "MAPSTYLE_REDIS_ADDR"
	envGeoIPDB    = "MAPSTYLE_GEOIP_DB"
	envSessionTTL = "MAPSTYLE_SESSION_TTL"
)

const defaultAddr = ":8080"

type serveFlags struct {
	sceneFlags
	envFile      string
	addr         string
	redisAddr    string
	geoIPDB      string
	sessionTTL   time.Duration
	discardStale bool
	noMetrics    bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "Serve a scene over a JSON HTTP API",
		Long: `Serve a scene over a JSON HTTP API.

Settings come from flags, then from the environment (MAPSTYLE_ADDR,
MAPSTYLE_REDIS_ADDR, MAPSTYLE_GEOIP_DB, MAPSTYLE_SESSION_TTL), which may be
loaded from a .env file. With a Redis address, sessions and fetched scenes
are kept in Redis; otherwise sessions live in memory. With a GeoIP database,
new viewers start at their city.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeScene(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if err := loadEnv(flags.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			if err := flags.applyEnv(cmd.Flags()); err != nil {
				return err
			}

			cfg := server.Config{
				Addr:       flags.addr,
				SessionTTL: flags.sessionTTL,
				Logger:     logger.WithPrefix("http"),
			}

			if flags.redisAddr != "" {
				rc, err := cache.OpenRedis(ctx, flags.redisAddr, "", 0)
				if err != nil {
					return errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", flags.redisAddr)
				}
				defer rc.Close()
				flags.store = rc
				cfg.Sessions = session.NewRedisStore(rc.Client())
				logger.Info("using redis", "addr", flags.redisAddr)
			}

			if flags.geoIPDB != "" {
				loc, err := viewport.OpenLocator(flags.geoIPDB)
				if err != nil {
					return err
				}
				defer loc.Close()
				cfg.Locator = loc
			}

			if !flags.noMetrics {
				m := metrics.New()
				m.Install()
				cfg.Metrics = m
			}

			a, err := loadApp(ctx, scenePath(args), flags.sceneFlags, app.Options{
				DiscardStale: flags.discardStale,
			})
			if err != nil {
				return err
			}

			srv := server.New(a, cfg)
			printSuccess("Serving %s", StyleHighlight.Render(a.Scene.Name()))
			printNextStep("Styles", "curl http://"+displayAddr(flags.addr)+"/api/styles")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&flags.envFile, "env-file", ".env", "load environment variables from this file if it exists")
	cmd.Flags().StringVar(&flags.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&flags.redisAddr, "redis", "", "Redis address for sessions and the fetch cache")
	cmd.Flags().StringVar(&flags.geoIPDB, "geoip-db", "", "GeoIP2/GeoLite2 City database for start locations")
	cmd.Flags().DurationVar(&flags.sessionTTL, "session-ttl", session.DefaultTTL, "session lifetime")
	cmd.Flags().BoolVar(&flags.discardStale, "discard-stale", false, "drop hover results superseded by a newer move")
	cmd.Flags().BoolVar(&flags.noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	flags.register(cmd)

	return cmd
}

// loadEnv loads a .env file. A missing file is only an error when the user
// named it explicitly.
func loadEnv(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv fills every flag the user did not set from the environment.
func (f *serveFlags) applyEnv(fs *pflag.FlagSet) error {
	set := func(flag, env string, dst *string) {
		if v := os.Getenv(env); v != "" && !fs.Changed(flag) {
			*dst = v
		}
	}
	set("addr", envAddr, &f.addr)
	set("redis", envRedisAddr, &f.redisAddr)
	set("geoip-db", envGeoIPDB, &f.geoIPDB)

	if v := os.Getenv(envSessionTTL); v != "" && !fs.Changed("session-ttl") {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", envSessionTTL)
		}
		f.sessionTTL = d
	}
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
