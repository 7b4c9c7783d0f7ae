package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brinefs/nfs2d/internal/backend"
	"github.com/brinefs/nfs2d/internal/config"
	"github.com/brinefs/nfs2d/internal/core/fsreg"
	"github.com/brinefs/nfs2d/internal/core/handle"
	"github.com/brinefs/nfs2d/internal/core/lock"
	"github.com/brinefs/nfs2d/internal/core/mount"
	"github.com/brinefs/nfs2d/internal/core/nfsdispatch"
	"github.com/brinefs/nfs2d/internal/core/nlmdispatch"
	"github.com/brinefs/nfs2d/internal/logger"
	"github.com/brinefs/nfs2d/internal/metrics"
	"github.com/brinefs/nfs2d/internal/telemetry"
	"github.com/brinefs/nfs2d/internal/wire/rpc"
)

const (
	mountProgram = 100005
	mountVersion = 1
	nfsProgram   = 100003
	nfsVersion   = 2
	nlmProgram   = 100021
	nlmVersion   = 1

	// housekeepingInterval is how often the background loop samples the
	// handle/lock gauges and reaps long-deactivated filesystems.
	housekeepingInterval = 30 * time.Second

	// fsReapAfter is how long a filesystem stays deactivated (unmounted)
	// before its fs_id and handles are forgotten for good (SPEC_FULL.md
	// §4's bounded handle table eviction hook).
	fsReapAfter = 10 * time.Minute
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MOUNT, NFS and NLM/KLM listeners",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	handles := handle.New(randomSuffix())
	backends := fsreg.New()
	locks := lock.New()
	mounts := mount.New(handles, backends)

	for _, mc := range cfg.Mounts {
		ctor, err := backend.Lookup(mc.Backend)
		if err != nil {
			return err
		}
		mounts.AddMountpoint(mc.Path, ctor(), mc.Options)
		logger.Info("registered mountpoint", "path", mc.Path, "backend", mc.Backend)
	}

	nfsDispatch := nfsdispatch.New(handles, backends)
	nfsDispatch.SetLogger(logger.Default{})
	nfsDispatch.SetDebug(cfg.Debug)
	nlmDispatch := nlmdispatch.New(locks)

	if cfg.Metrics.Enabled {
		metrics.Init()
	}
	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nfs2d",
		ServiceVersion: "dev",
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	go runHousekeeping(ctx, handles, backends, locks, m)

	servers := []*rpc.Server{
		{Name: "mount", Program: mountProgram, Version: mountVersion, Port: mountPort(cfg), Handle: mountHandler(mounts)},
		{Name: "nfs", Program: nfsProgram, Version: nfsVersion, Port: nfsPort(cfg), Handle: nfsHandler(nfsDispatch, m)},
		{Name: "nlm", Program: nlmProgram, Version: nlmVersion, Port: nlmPort(cfg), Handle: nlmHandler(nlmDispatch, m)},
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		s := s
		go func() {
			errCh <- s.ListenAndServe(ctx)
		}()
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: metrics.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics listening", "port", cfg.Metrics.Port)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("nfs2d is running")
	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	cancel()
	for _, s := range servers {
		_ = s.Close()
	}
	mounts.UmntAll()
	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}
	return nil
}

func mountPort(cfg *config.Config) int { return 22050 }
func nfsPort(cfg *config.Config) int   { return 22049 }
func nlmPort(cfg *config.Config) int   { return 22045 }

// runHousekeeping periodically samples the handle/lock gauges and reaps
// filesystems that have sat deactivated past fsReapAfter, evicting their
// handles in the same pass. It runs until ctx is cancelled.
func runHousekeeping(ctx context.Context, handles *handle.Registry, backends *fsreg.Registry, locks *lock.Table, m *metrics.Metrics) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetHandleCount(handles.Len())
			m.SetLockCount(locks.Len())

			for _, fsID := range backends.Reap(fsReapAfter) {
				evicted := handles.EvictFilesystem(fsID)
				logger.Info("reaped deactivated filesystem", "fs_id", fsID, "handles_evicted", evicted)
			}
		}
	}
}
