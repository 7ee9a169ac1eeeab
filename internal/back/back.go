package back

import (
	"context"
	"pongrank/internal/config"
	"pongrank/internal/util"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type Back struct {
	db      *sqlx.DB
	config  *config.Config
	metrics *metrics
}

// New opens the database at sqlDSN. Metrics are registered on reg, a nil reg
// keeps them private to this Back.
func New(sqlDriver string, sqlDSN string, conf *config.Config, reg prometheus.Registerer) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect(sqlDriver, withSQLiteOptions(sqlDSN))
	if err != nil {
		return nil, err
	}

	// A single writer serializes submissions, the duplicate check and the
	// tournament insert can't interleave with another submission.
	db.SetMaxOpenConns(1)

	if conf == nil {
		def := config.Default()
		conf = &def
	}

	return &Back{
		db:      db,
		config:  conf,
		metrics: newMetrics(reg),
	}, nil
}

// withSQLiteOptions adds the locking and foreign key options to dsn unless
// it sets them already.
func withSQLiteOptions(dsn string) string {
	options := []struct{ key, value string }{
		{"_txlock", "immediate"},
		{"_foreign_keys", "1"},
	}

	for _, v := range options {
		if hasDSNOption(dsn, v.key) {
			continue
		}

		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + v.key + "=" + v.value
	}

	return dsn
}

func hasDSNOption(dsn, key string) bool {
	i := strings.IndexByte(dsn, '?')
	if i < 0 {
		return false
	}

	for _, v := range strings.Split(dsn[i+1:], "&") {
		if strings.HasPrefix(v, key+"=") {
			return true
		}
	}

	return false
}

func (b *Back) Close() error {
	return b.db.Close()
}

func (b *Back) transaction(ctx context.Context, cb util.TransactionCallback) error {
	return util.Transaction(ctx, b.db, cb)
}

func (b *Back) newEngine(tx *sqlx.Tx) *Engine {
	return NewEngine(newTxRepository(tx), b.config.SeedUnratedPlayers)
}
