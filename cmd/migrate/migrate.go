package migrate

import (
	"fmt"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

const (
	brc20MigrationSource = "modules/brc20/database/postgresql/migrations"
	brc20MigrationTable  = "brc20_schema_migrations"
)

type migrateCmdOptions struct {
	DatabaseURL string
	BRC20Source string
}

func (opts *migrateCmdOptions) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&opts.BRC20Source, "brc20-source", brc20MigrationSource, "Path to BRC-20 migrations directory.")
	flags.StringVar(&opts.DatabaseURL, "database", "", "Database url to run migration on. Default is the configured BRC-20 Postgres database")
}

// newMigrate opens the brc20 migrations against the database, keeping their versions in brc20MigrationTable.
func (opts *migrateCmdOptions) newMigrate() (*migrate.Migrate, error) {
	rawURL := opts.DatabaseURL
	if rawURL == "" {
		rawURL = config.Load().Modules.BRC20.Postgres.MigrationURL()
	}
	databaseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}
	if _, ok := supportedDrivers[databaseURL.Scheme]; !ok {
		return nil, errors.Errorf("unsupported database driver: %s", databaseURL.Scheme)
	}

	newDatabaseURL := cloneURLWithQuery(databaseURL, url.Values{"x-migrations-table": {brc20MigrationTable}})
	m, err := migrate.New("file://"+opts.BRC20Source, newDatabaseURL.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Migrate instance")
	}
	m.Log = &consoleLogger{
		prefix: fmt.Sprintf("[%s] ", "BRC20"),
	}
	return m, nil
}

func cloneURLWithQuery(u *url.URL, newQuery url.Values) *url.URL {
	clone := *u
	query := clone.Query()
	for key, values := range newQuery {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	clone.RawQuery = query.Encode()
	return &clone
}

var supportedDrivers = map[string]struct{}{
	"postgres":   {},
	"postgresql": {},
}
