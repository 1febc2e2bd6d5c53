package brc20

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/datasources"
	"github.com/gaze-network/brc20-indexer/core/indexer"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/config"
	"github.com/gaze-network/brc20-indexer/internal/postgres"
	brc20config "github.com/gaze-network/brc20-indexer/modules/brc20/config"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/changelog"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/datagateway"
	brc20badger "github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/badger"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/memory"
	brc20postgres "github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/postgres"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"github.com/samber/do/v2"
)

func New(injector do.Injector) (indexer.IndexerWorker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.BRC20

	cleanupFuncs := make([]func(context.Context) error, 0)
	var brc20Dg datagateway.BRC20DataGateway
	var indexerInfoDg datagateway.IndexerInfoDataGateway
	switch strings.ToLower(moduleConf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for indexer")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		brc20Repo := brc20postgres.NewRepository(pg)
		brc20Dg = brc20Repo
		indexerInfoDg = brc20Repo
	case "badger":
		db, err := brc20badger.Open(moduleConf.Badger.Path)
		if err != nil {
			return nil, errors.Wrap(err, "can't open badger database")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			return errors.WithStack(db.Close())
		})
		brc20Repo := brc20badger.NewRepository(db)
		brc20Dg = brc20Repo
		indexerInfoDg = brc20Repo
	case "memory", "":
		logger.WarnContext(ctx, "Using in-memory database, indexed data is lost on shutdown")
		brc20Repo := memory.NewRepository()
		brc20Dg = brc20Repo
		indexerInfoDg = brc20Repo
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for indexer is not supported", moduleConf.Database)
	}

	datasource, err := NewDatasource(ctx, moduleConf.Datasource)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sink, err := newChangelogSink(ctx, moduleConf.Changelog)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	processor := NewProcessor(brc20Dg, indexerInfoDg, conf.Network, sink, cleanupFuncs)
	if err := processor.VerifyStates(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	indexer := indexer.New[*types.Block](processor, datasource)
	indexer.StartHeight = moduleConf.StartHeight
	return indexer, nil
}

// NewDatasource returns the block file datasource described by conf.
func NewDatasource(ctx context.Context, conf brc20config.DatasourceConfig) (*datasources.FileDatasource, error) {
	switch strings.ToLower(conf.Type) {
	case "local", "":
		if conf.Path == "" {
			return nil, errors.Wrap(errs.InvalidArgument, "local datasource requires a path")
		}
		return datasources.NewFileDatasource(datasources.NewLocalStorage(conf.Path)), nil
	case "s3":
		if conf.S3.Bucket == "" {
			return nil, errors.Wrap(errs.InvalidArgument, "s3 datasource requires a bucket")
		}
		client, err := datasources.NewS3Client(ctx, conf.S3)
		if err != nil {
			return nil, errors.Wrap(err, "can't create s3 client for datasource")
		}
		return datasources.NewFileDatasource(datasources.NewS3Storage(client, conf.S3.Bucket, conf.S3.Prefix)), nil
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q datasource is not supported", conf.Type)
	}
}

func newChangelogSink(ctx context.Context, conf brc20config.ChangelogConfig) (changelog.Sink, error) {
	if !conf.Enabled {
		return nil, nil
	}
	var writer changelog.ObjectWriter
	switch strings.ToLower(conf.Output) {
	case "local", "":
		if conf.Path == "" {
			return nil, errors.Wrap(errs.InvalidArgument, "local changelog requires a path")
		}
		writer = changelog.NewLocalWriter(conf.Path)
	case "s3":
		if conf.S3.Bucket == "" {
			return nil, errors.Wrap(errs.InvalidArgument, "s3 changelog requires a bucket")
		}
		client, err := datasources.NewS3Client(ctx, conf.S3)
		if err != nil {
			return nil, errors.Wrap(err, "can't create s3 client for changelog")
		}
		writer = changelog.NewS3Writer(client, conf.S3.Bucket, conf.S3.Prefix)
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q changelog output is not supported", conf.Output)
	}
	logger.InfoContext(ctx, "Writing changelog", slogx.String("output", writer.Name()))
	return changelog.NewParquetSink(writer), nil
}
