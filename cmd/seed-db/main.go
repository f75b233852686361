// Command seed-db applies the schema and loads CSV fixtures into Postgres.
// Fixtures may be plain .csv or gzip-compressed .csv.gz files; tables with no
// dependencies between them load concurrently.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideabank/ideabank-webapi/internal/repository"
)

// fixture describes one CSV file and the insert that loads a row of it.
type fixture struct {
	name    string
	columns []string
	insert  string
}

var fixtures = map[string]fixture{
	"accounts": {
		name:    "accounts",
		columns: []string{"display_name", "preferred_name", "biography", "password_hash", "salt_value"},
		insert: `INSERT INTO accounts (display_name, preferred_name, biography, password_hash, salt_value)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
	},
	"concepts": {
		name:    "concepts",
		columns: []string{"author", "title", "description", "diagram"},
		insert: `INSERT INTO concepts (author, title, description, diagram)
			VALUES ($1, $2, $3, $4::jsonb) ON CONFLICT DO NOTHING`,
	},
	"concept_links": {
		name:    "concept_links",
		columns: []string{"ancestor", "descendant"},
		insert: `INSERT INTO concept_links (ancestor, descendant)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
	},
	"follows": {
		name:    "follows",
		columns: []string{"follower", "followee"},
		insert: `INSERT INTO follows (follower, followee)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
	},
	"likes": {
		name:    "likes",
		columns: []string{"user_liking", "concept_liked"},
		insert: `INSERT INTO likes (user_liking, concept_liked)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
	},
	"comments": {
		name:    "comments",
		columns: []string{"comment_id", "concept_id", "comment_by", "response_to", "free_text"},
		insert: `INSERT INTO comments (comment_id, concept_id, comment_by, response_to, free_text)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
	},
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "db/fixtures", "directory containing fixture CSV files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Accounts before concepts: concepts reference account authors. The three
	// tables after that only depend on the first two, so they load in
	// parallel. Comments come last; replies reference earlier comment rows.
	if err := load(ctx, pool, dataDir, fixtures["accounts"]); err != nil {
		return err
	}
	if err := load(ctx, pool, dataDir, fixtures["concepts"]); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{"concept_links", "follows", "likes"} {
		f := fixtures[name]
		g.Go(func() error { return load(gctx, pool, dataDir, f) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return load(ctx, pool, dataDir, fixtures["comments"])
}

func load(ctx context.Context, pool *pgxpool.Pool, dataDir string, f fixture) error {
	r, closeFn, err := openFixture(dataDir, f.name)
	if err != nil {
		return errors.Wrapf(err, "open %s fixture", f.name)
	}
	defer closeFn()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(f.columns)

	header, err := reader.Read()
	if err != nil {
		return errors.Wrapf(err, "read %s header", f.name)
	}
	for i, col := range f.columns {
		if header[i] != col {
			return errors.Errorf("%s fixture: expected column %q at position %d, got %q", f.name, col, i, header[i])
		}
	}

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "read %s row %d", f.name, count+1)
		}

		args := make([]any, len(record))
		for i, v := range record {
			// Empty cells become NULL so optional columns like response_to
			// round-trip correctly.
			if v == "" {
				args[i] = nil
			} else {
				args[i] = v
			}
		}

		if _, err := pool.Exec(ctx, f.insert, args...); err != nil {
			return errors.Wrapf(err, "insert %s row %d", f.name, count+1)
		}
		count++
	}

	slog.Info("loaded fixture", slog.String("table", f.name), slog.Int("rows", count))
	return nil
}

// openFixture opens dataDir/name.csv, falling back to name.csv.gz with a
// parallel gzip reader.
func openFixture(dataDir, name string) (io.Reader, func(), error) {
	plain := filepath.Join(dataDir, name+".csv")
	if f, err := os.Open(plain); err == nil {
		return f, func() { _ = f.Close() }, nil
	}

	compressed := filepath.Join(dataDir, name+".csv.gz")
	f, err := os.Open(compressed)
	if err != nil {
		return nil, nil, errors.Errorf("neither %s nor %s exists", plain, compressed)
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrap(err, "open gzip reader")
	}
	return gz, func() {
		_ = gz.Close()
		_ = f.Close()
	}, nil
}
