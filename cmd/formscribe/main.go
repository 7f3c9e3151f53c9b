// cmd/formscribe/main.go
//
// formscribe – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (defaults → .env → conf/formscribe.yaml → env,
//     with `vault:` references resolved).
//
//  2. Start the rotating logger (tees to console when running in a TTY).
//
//  3. Point the form registry at the YAML directories and install every
//     component compiled into the binary.
//
//  4. Open the submission database when a DSN is configured, and the
//     GeoLite2 database when a path is configured.
//
//  5. Serve until SIGINT/SIGTERM, then drain for up to ten seconds.
//     SIGHUP reloads the configuration and re-points the registry at the
//     new form directories; forms already loaded stay cached.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/formscribe/internal/action"
	"github.com/yanizio/formscribe/internal/component"
	"github.com/yanizio/formscribe/internal/config"
	"github.com/yanizio/formscribe/internal/database"
	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/logger"
	"github.com/yanizio/formscribe/internal/requestinfo"
	"github.com/yanizio/formscribe/internal/server"

	_ "github.com/yanizio/formscribe/components/contact"
	_ "github.com/yanizio/formscribe/components/login"
	_ "github.com/yanizio/formscribe/components/products"
)

const shutdownGrace = 10 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// reloadForms re-reads the configuration and points reg at its form
// directories.
func reloadForms(reg *form.Registry) ([]string, error) {
	if err := config.Reload(); err != nil {
		return nil, err
	}
	dirs := config.Get().Forms.Dirs
	reg.SetDirs(dirs...)
	return dirs, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("formscribe: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config and logger ───────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logOut, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Tee: runningInTTY()})
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Forms ───────────────────────────────────────────────────────
	//
	form.Default.SetDirs(cfg.Forms.Dirs...)
	components := component.All()
	component.Install(form.Default, components...)
	logOut.Infow("forms ready", "forms", form.Default.Names(), "dirs", cfg.Forms.Dirs)

	//
	// ── 3.  Optional collaborators ──────────────────────────────────────
	//
	var db *sqlx.DB
	values := map[string]any{}
	if cfg.Database.DSN != "" {
		db, err = database.Open(ctx, cfg.Database.DSN, cfg.Database.Password)
		if err != nil {
			return err
		}
		defer db.Close()
		values["db"] = db
		logOut.Infow("submission database online", "table", cfg.Forms.StoreTable)
	}

	actions, err := action.New(db, action.FromConfig(cfg.Forms))
	if err != nil {
		return err
	}

	info, err := requestinfo.NewResolver(cfg.Geo.DBPath)
	if err != nil {
		return err
	}
	defer info.Close()

	//
	// ── 4.  HTTP ────────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, server.Handler(server.Options{
		Registry:     form.Default,
		Actions:      actions,
		Info:         info,
		Components:   components,
		Values:       values,
		MaxDepth:     cfg.Forms.MaxDepth,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		BatchLimit:   cfg.Forms.BatchLimit,
		ForceHTTPS:   cfg.HTTP.ForceHTTPS,
		Logger:       logOut,
	}))

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				dirs, err := reloadForms(form.Default)
				if err != nil {
					logOut.Errorw("config reload failed, keeping previous", "err", err)
					continue
				}
				logOut.Infow("config reloaded", "dirs", dirs)
			}
		}
	})
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logOut.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
