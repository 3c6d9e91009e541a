package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/storage/models"
	"github.com/issuelens/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_runs (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		subject_boost REAL,
		tag_boost REAL,
		sentence_boost REAL,
		result_count INTEGER,
		hit_count INTEGER,
		found_count INTEGER,
		related_count INTEGER,
		fraction REAL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_record ON search_runs(record_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON search_runs(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Schema initialized")
	return nil
}

func (c *Client) InsertSearchRun(run *models.SearchRun) error {
	_, err := c.db.Exec(`
		INSERT INTO search_runs (
			id, record_id, strategy, subject_boost, tag_boost, sentence_boost,
			result_count, hit_count, found_count, related_count, fraction,
			latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.RecordID,
		run.Strategy,
		run.SubjectBoost,
		run.TagBoost,
		run.SentenceBoost,
		run.ResultCount,
		run.HitCount,
		run.FoundCount,
		run.RelatedCount,
		run.Fraction,
		run.LatencyMS,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert search run: %w", err)
	}

	return nil
}

func (c *Client) ListRecentRuns(limit int) ([]models.SearchRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.Query(`
		SELECT id, record_id, strategy, subject_boost, tag_boost, sentence_boost,
		       result_count, hit_count, found_count, related_count, fraction,
		       latency_ms, created_at
		FROM search_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SearchRun
	for rows.Next() {
		var run models.SearchRun
		var createdAt int64
		err := rows.Scan(
			&run.ID,
			&run.RecordID,
			&run.Strategy,
			&run.SubjectBoost,
			&run.TagBoost,
			&run.SentenceBoost,
			&run.ResultCount,
			&run.HitCount,
			&run.FoundCount,
			&run.RelatedCount,
			&run.Fraction,
			&run.LatencyMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search runs: %w", err)
	}

	return runs, nil
}
