// Package runner applies migration files to a live database. It owns
// the tracking of which labels have been applied; the static catalog
// checks already happened when the files were built, so the runner
// only sequences, executes and records.
package runner

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quelgo/quel/database"
	"github.com/quelgo/quel/migrate"
	"github.com/quelgo/quel/utils"
)

func getConn() (*pgx.Conn, context.Context, error) {
	ctx := context.Background()
	conn, err := database.GetConnection(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get connection: %w", err)
	}
	return conn, ctx, nil
}

func ensureMigrationsTable(conn *pgx.Conn, ctx context.Context) error {
	_, err := conn.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS quel_migrations (
		id SERIAL PRIMARY KEY,
		label TEXT NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT now(),
		checksum TEXT
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create quel_migrations table: %w", err)
	}
	return nil
}

func checksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

func appliedLabels(conn *pgx.Conn, ctx context.Context) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT label FROM quel_migrations;`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		applied[label] = true
	}
	return applied, nil
}

func appliedLabelsOrdered(conn *pgx.Conn, ctx context.Context) ([]string, error) {
	rows, err := conn.Query(ctx, `SELECT label FROM quel_migrations ORDER BY applied_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		applied = append(applied, label)
	}
	return applied, nil
}

// migrationLabels lists the labels present in the migrations directory,
// in label order.
func migrationLabels() ([]string, error) {
	entries, err := os.ReadDir(utils.MigrationsDir())
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var labels []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			labels = append(labels, strings.TrimSuffix(e.Name(), ".sql"))
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// stripRules drops the decorative rule lines under the section markers.
func stripRules(section string) string {
	var lines []string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "-- ===") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseFile splits a migration file into its up and down SQL sections.
func ParseFile(content string) (string, string, error) {
	parts := strings.Split(content, migrate.DownMarker)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("migration file does not contain a rollback section")
	}
	upParts := strings.Split(parts[0], migrate.UpMarker)
	if len(upParts) < 2 {
		return "", "", fmt.Errorf("migration file does not contain an up section")
	}
	upSQL := stripRules(upParts[1])
	downSQL := stripRules(parts[1])
	if upSQL == "" || downSQL == "" {
		return "", "", fmt.Errorf("migration file has an empty section")
	}
	return upSQL, downSQL, nil
}

func readMigration(label string) (string, string, error) {
	content, err := os.ReadFile(filepath.Join(utils.MigrationsDir(), label+".sql"))
	if err != nil {
		return "", "", fmt.Errorf("read migration %s: %w", label, err)
	}
	up, down, err := ParseFile(string(content))
	if err != nil {
		return "", "", fmt.Errorf("migration %s: %w", label, err)
	}
	return up, down, nil
}

func applyMigration(conn *pgx.Conn, ctx context.Context, label string) error {
	upSQL, _, err := readMigration(label)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, upSQL); err != nil {
		return fmt.Errorf("executing migration %s: %w", label, err)
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO quel_migrations (label, checksum) VALUES ($1, $2)
	`, label, checksum(upSQL))
	if err != nil {
		return fmt.Errorf("recording migration %s: %w", label, err)
	}
	return nil
}

func rollbackMigration(conn *pgx.Conn, ctx context.Context, label string) error {
	_, downSQL, err := readMigration(label)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, downSQL); err != nil {
		return fmt.Errorf("executing rollback for %s: %w", label, err)
	}

	if _, err := conn.Exec(ctx, `DELETE FROM quel_migrations WHERE label = $1;`, label); err != nil {
		return fmt.Errorf("removing migration record for %s: %w", label, err)
	}
	return nil
}

func pendingLabels(conn *pgx.Conn, ctx context.Context) ([]string, error) {
	applied, err := appliedLabels(conn, ctx)
	if err != nil {
		return nil, err
	}
	labels, err := migrationLabels()
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, l := range labels {
		if !applied[l] {
			pending = append(pending, l)
		}
	}
	return pending, nil
}

// Apply runs every pending migration in label order.
func Apply() error {
	conn, ctx, err := getConn()
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if err := ensureMigrationsTable(conn, ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	pending, err := pendingLabels(conn, ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("✅ No pending migrations.")
		return nil
	}

	fmt.Printf("Applying %d migration(s)...\n", len(pending))
	for _, label := range pending {
		fmt.Printf("Applying: %s\n", label)
		if err := applyMigration(conn, ctx, label); err != nil {
			return err
		}
	}

	fmt.Println("✅ All migrations applied.")
	return nil
}

// Rollback undoes the most recent migrations, newest first.
func Rollback(steps int) error {
	conn, ctx, err := getConn()
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if err := ensureMigrationsTable(conn, ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := appliedLabelsOrdered(conn, ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("✅ No migrations to rollback.")
		return nil
	}

	if steps > len(applied) {
		steps = len(applied)
		fmt.Printf("⚠️  Only %d migrations available, rolling back all.\n", len(applied))
	}

	fmt.Printf("Rolling back %d migration(s)...\n", steps)
	for _, label := range applied[:steps] {
		fmt.Printf("Rolling back: %s\n", label)
		if err := rollbackMigration(conn, ctx, label); err != nil {
			return err
		}
	}

	fmt.Println("✅ Rollback completed.")
	return nil
}

// Status returns applied and pending migration labels.
func Status() ([]string, []string, error) {
	conn, ctx, err := getConn()
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close(ctx)

	if err := ensureMigrationsTable(conn, ctx); err != nil {
		return nil, nil, err
	}

	appliedMap, err := appliedLabels(conn, ctx)
	if err != nil {
		return nil, nil, err
	}
	labels, err := migrationLabels()
	if err != nil {
		return nil, nil, err
	}

	var applied, pending []string
	for _, l := range labels {
		if appliedMap[l] {
			applied = append(applied, l)
		} else {
			pending = append(pending, l)
		}
	}
	return applied, pending, nil
}

// Preview prints the SQL of all pending migrations without applying
// them.
func Preview() error {
	conn, ctx, err := getConn()
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if err := ensureMigrationsTable(conn, ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	pending, err := pendingLabels(conn, ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("✅ No pending migrations.")
		return nil
	}

	fmt.Println("\n================ DRY RUN: Migration Preview ================")
	for _, label := range pending {
		upSQL, downSQL, err := readMigration(label)
		if err != nil {
			return err
		}
		fmt.Printf("\n-- Migration: %s --\n", label)
		fmt.Println("-- Up --")
		fmt.Println(upSQL)
		fmt.Println("\n-- Down --")
		fmt.Println(downSQL)
	}
	fmt.Println("============================================================")
	fmt.Println("(Dry run only. No migrations were applied.)")
	return nil
}
