package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/code19m/errx"

	"github.com/ILGurin/spp-course-work/cfgloader"
	"github.com/ILGurin/spp-course-work/directory"
	"github.com/ILGurin/spp-course-work/dispatch"
	"github.com/ILGurin/spp-course-work/file"
	"github.com/ILGurin/spp-course-work/filestore"
	"github.com/ILGurin/spp-course-work/filestore/memstore"
	"github.com/ILGurin/spp-course-work/filestore/miniowr"
	"github.com/ILGurin/spp-course-work/meta"
	"github.com/ILGurin/spp-course-work/metadata"
	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/observability/tracing"
	"github.com/ILGurin/spp-course-work/pg"
	"github.com/ILGurin/spp-course-work/workpool"
)

type app struct {
	pool    *workpool.Pool
	storage *dispatch.Service
	closers []func() error
}

func main() {
	cfg := cfgloader.MustLoad[Config]()

	meta.SetServiceInfo(cfg.Service.Name, cfg.Service.Version)
	logger.SetGlobal(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracer, err := tracing.InitGlobalTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalx(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		logger.Fatalx(err)
	}

	logger.With("workpool_size", a.pool.Size()).
		With("metadata_driver", cfg.Metadata.Driver).
		With("object_store_driver", cfg.ObjectStore.Driver).
		Info("storage core started")

	<-ctx.Done()
	logger.Info("shutting down")

	a.close(cfg.Workpool)
	if err = shutdownTracer(); err != nil {
		logger.Errorx(err)
	}
}

// build wires the storage core. Transports attach to a.storage.
func build(ctx context.Context, cfg Config) (*app, error) {
	a := &app{}

	repos, err := a.openMetadata(ctx, cfg.Metadata)
	if err != nil {
		return nil, err
	}

	store, err := openObjectStore(cfg.ObjectStore)
	if err != nil {
		return nil, err
	}
	if err = filestore.EnsureContainer(ctx, store, cfg.Storage.Bucket); err != nil {
		return nil, errx.Wrap(err)
	}

	prov := directory.NewProvisioner(repos.Directories,
		directory.WithAttempts(cfg.Storage.ProvisionAttempts),
		directory.WithDelay(cfg.Storage.ProvisionDelay),
	)
	dirs := directory.NewService(repos.Directories, prov)
	files, err := file.NewService(repos, prov, store, cfg.Storage.Config)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	a.pool = workpool.New(cfg.Workpool.Size)
	a.storage = dispatch.New(a.pool, dirs, files)
	return a, nil
}

func (a *app) openMetadata(ctx context.Context, cfg MetadataConfig) (metadata.Repos, error) {
	if cfg.Driver == metadata.DriverMemory {
		return metadata.NewMemRepos(), nil
	}

	db, err := pg.NewBunDB(*cfg.Postgres)
	if err != nil {
		return metadata.Repos{}, errx.Wrap(err)
	}
	a.closers = append(a.closers, db.Close)

	if err = metadata.Migrate(ctx, db, cfg.Postgres.Schema); err != nil {
		return metadata.Repos{}, errx.Wrap(err)
	}
	return metadata.NewPgRepos(db, cfg.Postgres.Schema), nil
}

func openObjectStore(cfg ObjectStoreConfig) (filestore.ObjectStore, error) {
	if cfg.Driver == storeMemory {
		return memstore.New(), nil
	}

	client, err := miniowr.New(*cfg.Minio)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return client, nil
}

func (a *app) close(cfg WorkpoolConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := a.pool.Close(ctx); err != nil {
		logger.Errorx(err)
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Errorx(errx.Wrap(err))
		}
	}
}
