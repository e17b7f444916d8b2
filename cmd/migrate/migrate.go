package migrate

import (
	"net/url"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	erc20MigrationSource = "modules/erc20/database/postgresql/migrations"
	erc20MigrationTable  = "erc20_schema_migrations"
)

type direction int

const (
	directionUp direction = iota
	directionDown
)

func (d direction) String() string {
	if d == directionDown {
		return "down"
	}
	return "up"
}

// moduleMigrations is the migration set of one indexer module, tracked in its own table.
type moduleMigrations struct {
	module string
	source string
	table  string
}

// apply runs the migrations in the given direction. steps == 0 applies all of them.
func (mm moduleMigrations) apply(databaseURL *url.URL, dir direction, steps int) error {
	target := cloneURLWithQuery(databaseURL, url.Values{"x-migrations-table": {mm.table}})
	m, err := migrate.New("file://"+mm.source, target.String())
	if err != nil {
		return errors.Wrapf(err, "can't open %s migrations", mm.module)
	}
	defer m.Close()
	m.Log = &migrationLogger{module: mm.module}

	switch {
	case steps == 0 && dir == directionUp:
		m.Log.Printf("Applying all up migrations")
		err = m.Up()
	case steps == 0:
		m.Log.Printf("Applying all down migrations")
		err = m.Down()
	case dir == directionUp:
		m.Log.Printf("Applying %d up migrations", steps)
		err = m.Steps(steps)
	default:
		m.Log.Printf("Applying %d down migrations", steps)
		err = m.Steps(-steps)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		m.Log.Printf("No %s migrations to apply", dir)
		return nil
	}
	return errors.Wrapf(err, "can't apply %s %s migrations", mm.module, dir)
}

// parseDatabaseURL validates the --database flag.
func parseDatabaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "--database is required")
	}
	databaseURL, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse database url")
	}
	if _, ok := supportedDrivers[databaseURL.Scheme]; !ok {
		return nil, errors.Wrapf(errs.Unsupported, "database driver %q", databaseURL.Scheme)
	}
	return databaseURL, nil
}

// parseSteps reads the optional [N] argument. Cobra limits args to at most one.
func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.Wrapf(errs.InvalidArgument, "N must be an integer, got %q", args[0])
	}
	if n < 0 {
		return 0, errors.Wrapf(errs.InvalidArgument, "N must not be negative, got %d", n)
	}
	return n, nil
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
