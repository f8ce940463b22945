package main

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/edi-processor/internal/logger"
)

//go:embed sql/*.sql
var embedded embed.FS

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

var (
	projectID     = flag.String("project", os.Getenv("EDI_BIGQUERY_PROJECT"), "GCP project ID (required, or set EDI_BIGQUERY_PROJECT)")
	datasetID     = flag.String("dataset", "edi", "BigQuery dataset ID")
	appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir = flag.String("migrations", "", "Directory of migration files (defaults to the embedded set)")
	dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
)

func main() {
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if *projectID == "" {
		log.Fatal().Msg("-project flag is required")
	}

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	if err := run(ctx, client, log); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func migrationSource() (fs.FS, error) {
	if *migrationsDir != "" {
		return os.DirFS(*migrationsDir), nil
	}
	return fs.Sub(embedded, "sql")
}

func run(ctx context.Context, client *bigquery.Client, log zerolog.Logger) error {
	if err := ensureSchemaMigrationsTable(ctx, client); err != nil {
		return fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	source, err := migrationSource()
	if err != nil {
		return err
	}
	migrations, err := readMigrations(source, *projectID, *datasetID)
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	appliedMigrations, err := getAppliedMigrations(ctx, client)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}
	log.Info().Int("count", len(appliedMigrations)).Msg("Found applied migrations")

	pending, err := pendingMigrations(migrations, appliedMigrations)
	if err != nil {
		return err
	}

	for _, migration := range pending {
		l := log.With().Int("version", migration.Version).Str("name", migration.Name).Logger()
		if *dryRun {
			l.Info().Msg("Pending migration")
			continue
		}

		l.Info().Msg("Applying migration")
		if err := executeMigration(ctx, client, migration.SQL); err != nil {
			return fmt.Errorf("executing %04d_%s: %w", migration.Version, migration.Name, err)
		}
		if err := recordMigration(ctx, client, migration); err != nil {
			return fmt.Errorf("recording %04d_%s: %w", migration.Version, migration.Name, err)
		}
		l.Info().Msg("Migration applied")
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
	} else if !*dryRun {
		log.Info().Int("count", len(pending)).Msg("Successfully applied migrations")
	}
	return nil
}

// pendingMigrations returns migrations not yet applied, refusing to continue when an
// applied migration's content has changed since it ran.
func pendingMigrations(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	var pending []Migration
	for _, m := range all {
		am, ok := byVersion[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("migration %04d_%s changed after it was applied", m.Version, m.Name)
		}
	}
	return pending, nil
}

func tableRef(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", *projectID, *datasetID, table)
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureSchemaMigrationsTable(ctx context.Context, client *bigquery.Client) error {
	return executeMigration(ctx, client, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, tableRef("schema_migrations")))
}

// readMigrations reads NNNN_name.sql files from fsys in version order and
// substitutes the project and dataset placeholders.
func readMigrations(fsys fs.FS, project, dataset string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := migrationPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}

		// Checksum covers the file before substitution so one migration
		// keeps its identity across projects and datasets.
		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", project)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", dataset)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// getAppliedMigrations retrieves the list of already applied migrations
func getAppliedMigrations(ctx context.Context, client *bigquery.Client) ([]AppliedMigration, error) {
	query := client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, tableRef("schema_migrations")))
	it, err := query.Read(ctx)
	if err != nil {
		if isNotFound(err) {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		am := AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
		}

		if row.Checksum.Valid {
			am.Checksum = row.Checksum.StringVal
		}

		if row.AppliedBy.Valid {
			am.AppliedBy = row.AppliedBy.StringVal
		}

		applied = append(applied, am)
	}

	return applied, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return strings.Contains(err.Error(), "Not found")
}

// executeMigration runs one DDL or DML statement to completion.
func executeMigration(ctx context.Context, client *bigquery.Client, sql string) error {
	query := client.Query(sql)
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

// recordMigration records a successfully applied migration in schema_migrations
func recordMigration(ctx context.Context, client *bigquery.Client, migration Migration) error {
	query := client.Query(fmt.Sprintf(`
		INSERT INTO %s
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, tableRef("schema_migrations")))
	query.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: migration.Version},
		{Name: "name", Value: migration.Name},
		{Name: "checksum", Value: migration.Checksum},
		{Name: "applied_by", Value: *appliedBy},
	}

	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
