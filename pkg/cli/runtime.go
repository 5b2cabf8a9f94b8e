package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/populationgenomics/seqr/internal/config"
	"github.com/populationgenomics/seqr/internal/db"
	"github.com/populationgenomics/seqr/internal/db/repository"
	"github.com/populationgenomics/seqr/internal/elastic"
	"github.com/populationgenomics/seqr/internal/engine"
	"github.com/populationgenomics/seqr/internal/metadata"
	"github.com/populationgenomics/seqr/internal/search"
)

// runtime holds the configuration and the stores a command needs. Stores
// are opened on first use so commands that only render queries never
// touch the databases.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger

	meta     *db.Metastore
	variants *sql.DB
	store    *engine.Store
	service  *search.Service
}

func (rt *runtime) configure(envFile string, stderr io.Writer) error {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg
	rt.logger = cfg.NewLogger(stderr)
	for _, w := range cfg.Warnings {
		rt.logger.Warn(w)
	}
	return nil
}

func (rt *runtime) metastore() (*db.Metastore, error) {
	if rt.meta != nil {
		return rt.meta, nil
	}
	meta, err := db.OpenMetastore(rt.cfg.MetaDBPath, 0)
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	rt.meta = meta
	return meta, nil
}

func (rt *runtime) roster() (*repository.RosterRepo, error) {
	meta, err := rt.metastore()
	if err != nil {
		return nil, err
	}
	return repository.NewRosterRepo(meta.Write), nil
}

func (rt *runtime) enums() (*repository.EnumRepo, error) {
	meta, err := rt.metastore()
	if err != nil {
		return nil, err
	}
	return repository.NewEnumRepo(meta.Write), nil
}

func (rt *runtime) variantStore() (*engine.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	conn, err := engine.Open(rt.cfg.VariantDBPath)
	if err != nil {
		return nil, fmt.Errorf("open variant store: %w", err)
	}
	rt.variants = conn
	rt.store = engine.NewStore(conn, rt.logger)
	return rt.store, nil
}

// searchService wires the variant store, the enum cache and the roster
// into a search service.
func (rt *runtime) searchService() (*search.Service, error) {
	if rt.service != nil {
		return rt.service, nil
	}
	store, err := rt.variantStore()
	if err != nil {
		return nil, err
	}
	meta, err := rt.metastore()
	if err != nil {
		return nil, err
	}
	cache := metadata.NewCache(repository.NewEnumRepo(meta.Read), store, rt.logger)
	svc := search.NewService(store, cache, search.Options{
		NumResults:       rt.cfg.NumResults,
		MaxParallelLoads: rt.cfg.MaxParallelLoads,
		GenomeVersion:    rt.cfg.GenomeVersion,
	}, rt.logger)
	svc.SetRoster(repository.NewRosterRepo(meta.Read))
	rt.service = svc
	return svc, nil
}

func (rt *runtime) elasticExecutor() (*elastic.Executor, error) {
	client, err := elastic.NewClient(rt.cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}
	return elastic.NewExecutor(client, rt.logger), nil
}

// Close releases every store opened by the command.
func (rt *runtime) Close() error {
	var errs []error
	if rt.variants != nil {
		errs = append(errs, rt.variants.Close())
		rt.variants, rt.store, rt.service = nil, nil, nil
	}
	if rt.meta != nil {
		errs = append(errs, rt.meta.Close())
		rt.meta = nil
	}
	return errors.Join(errs...)
}

// withRuntime closes the runtime's stores after fn returns, whether or not
// it failed.
func withRuntime(rt *runtime, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := rt.Close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}
