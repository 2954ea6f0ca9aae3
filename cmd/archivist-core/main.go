// Command archivist-core is the core process's entrypoint: it loads
// configuration, opens the catalog and archive root, and supervises the
// job queue worker pools, the janitor, and the media protocol server
// for the lifetime of the process. The UI shell and embedded browser
// are separate, out-of-scope processes that talk to this one only
// through the catalog database and the media server's HTTP interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/config"
	"github.com/bizzlechizzle/archivist-core/internal/extraction"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
	"github.com/bizzlechizzle/archivist-core/internal/importpipeline"
	"github.com/bizzlechizzle/archivist-core/internal/jobqueue"
	"github.com/bizzlechizzle/archivist-core/internal/logging"
	"github.com/bizzlechizzle/archivist-core/internal/mediaserver"
	"github.com/bizzlechizzle/archivist-core/internal/proxy"
	"github.com/bizzlechizzle/archivist-core/internal/webarchive"
	"github.com/bizzlechizzle/archivist-core/private/lifecycle"
)

func main() {
	configPath := flag.String("config", "archivist.toml", "path to archivist.toml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "archivist-core:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.Open(ctx, logging.Component(log, "catalog"), cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer s.Close() //nolint:errcheck

	planner, err := archive.New(cfg.ArchiveRoot)
	if err != nil {
		return fmt.Errorf("build archive planner: %w", err)
	}
	if err := planner.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare archive root: %w", err)
	}

	hasher := hashing.New(int(cfg.HashBufferBytes))
	reg := prometheus.NewRegistry()

	group := lifecycle.NewGroup(log)

	comps := &components{
		log:        log,
		store:      s,
		planner:    planner,
		hasher:     hasher,
		dispatcher: extraction.New(logging.Component(log, "extraction"), s.Extractions),
		proxyGen:   proxy.New(planner, proxy.Command(cfg.ProxyCommand)),
		session:    importpipeline.NewSession(logging.Component(log, "import"), s, planner, hasher, cfg.ImportHashWorkers),
	}

	archiver := webarchive.New(logging.Component(log, "webarchive"), s, planner, hasher)
	archiver.ScreenshotCmd = webarchive.ExternalCommand(cfg.ScreenshotCommand)
	archiver.PDFCmd = webarchive.ExternalCommand(cfg.PDFCommand)

	handlers := comps.handlersByQueue()
	for _, queueName := range jobqueue.AllQueues {
		handler, ok := handlers[queueName]
		if !ok {
			log.Fatal("no handler registered for queue", zap.String("queue", queueName))
		}
		qcfg := cfg.Queues[queueName]
		pool := jobqueue.NewPool(logging.Component(log, "jobqueue"), s.Jobs, queueName, handler, reg)
		workers := qcfg.Workers
		group.Add(lifecycle.Item{
			Name: "jobqueue-" + queueName,
			Run: func(ctx context.Context) error {
				return pool.Run(ctx, workers)
			},
		})
	}

	janitor := jobqueue.NewJanitor(log, s.Jobs)
	group.Add(lifecycle.Item{
		Name: "jobqueue-janitor",
		Run:  janitor.Run,
	})

	for _, folder := range cfg.WatchFolders {
		item, err := watchFolderItem(logging.Component(log, "watch-folder"), comps.session, folder, int64(cfg.ScanCeiling))
		if err != nil {
			return fmt.Errorf("start watch folder %s: %w", folder.Dir, err)
		}
		group.Add(item)
	}

	rpc := newRPCServer(logging.Component(log, "rpc"))
	rpc.register("webarchive.capture", rpcTimeoutLong, captureMethod(archiver))
	rpc.register("refmap.import", rpcTimeoutDefault, refMapImportMethod(s.RefMaps))
	rpc.register("location.delete", rpcTimeoutDefault, locationDeleteMethod(s))

	mux := http.NewServeMux()
	mux.Handle("/media/", http.StripPrefix("/media", mediaserver.New(logging.Component(log, "mediaserver"), planner)))
	mux.Handle("/rpc", rpc)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: cfg.MediaServerAddr, Handler: mux}

	group.Add(lifecycle.Item{
		Name: "media-server",
		Run: func(ctx context.Context) error {
			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.ListenAndServe() }()
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			}
		},
	})

	log.Info("archivist-core starting",
		zap.String("archive_root", planner.Root()),
		zap.String("media_server_addr", cfg.MediaServerAddr))

	g, gctx := errgroup.WithContext(ctx)
	group.Run(gctx, g)
	runErr := g.Wait()

	if err := group.Close(); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}
