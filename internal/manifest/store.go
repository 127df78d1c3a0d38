package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"toonvault/internal/config"
)

// Store manages episode manifest persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the manifest database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "manifest.db"))
}

// OpenPath opens the manifest database at an explicit location. The pragmas
// ride on the DSN so every connection in the pool carries them; a busy
// timeout applied with Exec would land on a single pooled connection and
// leave the rest returning SQLITE_BUSY under write contention.
func OpenPath(dbPath string) (*Store, error) {
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a new episode record with empty link fields and status
// pending. A non-terminal record with the same (anime, season, episode) key
// rejects the insert with ErrEpisodeActive; the guard and the insert are one
// statement so two concurrent runs cannot both claim the key.
func (s *Store) Create(ctx context.Context, meta Metadata) (*Episode, error) {
	meta.AnimeName = strings.TrimSpace(meta.AnimeName)
	if meta.AnimeName == "" {
		return nil, errors.New("anime name required")
	}
	if meta.SeasonNumber <= 0 {
		return nil, errors.New("season number must be positive")
	}
	if meta.EpisodeNumber <= 0 {
		return nil, errors.New("episode number must be positive")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (
            anime_name, season_number, episode_number, episode_name,
            description, video_links, thumbnail_link, poster_link,
            status, created_at, updated_at
        )
        SELECT ?, ?, ?, ?, ?, '', '', '', ?, ?, ?
        WHERE NOT EXISTS (
            SELECT 1 FROM episodes
            WHERE anime_name = ? AND season_number = ? AND episode_number = ?
              AND status IN (?, ?)
        )`,
		meta.AnimeName, meta.SeasonNumber, meta.EpisodeNumber, meta.EpisodeName,
		meta.Description, StatusPending, timestamp, timestamp,
		meta.AnimeName, meta.SeasonNumber, meta.EpisodeNumber,
		StatusPending, StatusPartial,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrEpisodeActive
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// AppendLink records the public URL of one uploaded artifact. Segment links
// append to video_links in call order; thumbnail and poster set their columns.
// The first append advances status from pending to partial. Appends against a
// finalized record fail with ErrFinalized.
func (s *Store) AppendLink(ctx context.Context, id int64, kind ArtifactKind, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("artifact url required")
	}
	if strings.Contains(url, linkDelimiter) {
		return fmt.Errorf("artifact url must not contain %q", linkDelimiter)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	var (
		res sql.Result
		err error
	)
	switch kind {
	case ArtifactSegment:
		res, err = s.execWithRetry(
			ctx,
			`UPDATE episodes
             SET video_links = CASE WHEN video_links = '' THEN ? ELSE video_links || ? || ? END,
                 status = ?, updated_at = ?
             WHERE id = ? AND status IN (?, ?)`,
			url, linkDelimiter, url,
			StatusPartial, timestamp,
			id, StatusPending, StatusPartial,
		)
	case ArtifactThumbnail:
		res, err = s.execWithRetry(
			ctx,
			`UPDATE episodes SET thumbnail_link = ?, status = ?, updated_at = ?
             WHERE id = ? AND status IN (?, ?)`,
			url, StatusPartial, timestamp, id, StatusPending, StatusPartial,
		)
	case ArtifactPoster:
		res, err = s.execWithRetry(
			ctx,
			`UPDATE episodes SET poster_link = ?, status = ?, updated_at = ?
             WHERE id = ? AND status IN (?, ?)`,
			url, StatusPartial, timestamp, id, StatusPending, StatusPartial,
		)
	default:
		return fmt.Errorf("unknown artifact kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("append %s link: %w", kind, err)
	}
	return s.checkWriteApplied(ctx, res, id)
}

// Finalize moves a record to a terminal status. Finalizing an already
// finalized record is a no-op when the status matches and ErrFinalized
// otherwise, so crash-recovery paths can finalize without first reading.
func (s *Store) Finalize(ctx context.Context, id int64, final Status) error {
	if !final.Terminal() {
		return fmt.Errorf("finalize status must be %s or %s, got %q", StatusComplete, StatusFailed, final)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		final, timestamp, id, StatusPending, StatusPartial,
	)
	if err != nil {
		return fmt.Errorf("finalize episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == final {
		return nil
	}
	return fmt.Errorf("%w: status is %s", ErrFinalized, current.Status)
}

// FailStale finalizes non-terminal records untouched for longer than maxAge
// as failed and returns their ids. A crashed run leaves its pending or
// partial row behind, and that row blocks re-ingestion of the same episode
// key until reclaimed. Timestamps are compared after parsing; RFC3339Nano
// trims trailing fractional zeros, so string order is not time order.
func (s *Store) FailStale(ctx context.Context, maxAge time.Duration) ([]int64, error) {
	if maxAge <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, updated_at FROM episodes WHERE status IN (?, ?)`,
		StatusPending, StatusPartial,
	)
	if err != nil {
		return nil, fmt.Errorf("list non-terminal episodes: %w", err)
	}
	defer rows.Close()

	cutoff := time.Now().UTC().Add(-maxAge)
	var stale []int64
	for rows.Next() {
		var (
			id        int64
			updatedAt string
		)
		if err := rows.Scan(&id, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan non-terminal episode: %w", err)
		}
		touched, parseErr := time.Parse(time.RFC3339Nano, updatedAt)
		if parseErr == nil && !touched.Before(cutoff) {
			continue
		}
		// Unparsable timestamps reclaim too, otherwise the row blocks
		// its key forever.
		stale = append(stale, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate non-terminal episodes: %w", err)
	}

	var reclaimed []int64
	for _, id := range stale {
		if err := s.Finalize(ctx, id, StatusFailed); err != nil {
			if errors.Is(err, ErrFinalized) || errors.Is(err, ErrNotFound) {
				continue
			}
			return reclaimed, fmt.Errorf("fail stale episode %d: %w", id, err)
		}
		reclaimed = append(reclaimed, id)
	}
	return reclaimed, nil
}

func (s *Store) checkWriteApplied(ctx context.Context, res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: status is %s", ErrFinalized, current.Status)
}

const episodeColumns = `id, anime_name, season_number, episode_number, episode_name,
    description, video_links, thumbnail_link, poster_link, status, created_at, updated_at`

// GetByID fetches one episode record.
func (s *Store) GetByID(ctx context.Context, id int64) (*Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get episode %d: %w", id, err)
	}
	return episode, nil
}

// List returns episode records newest first, bounded by limit when positive.
func (s *Store) List(ctx context.Context, limit int) ([]*Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (*Episode, error) {
	var (
		episode   Episode
		links     string
		status    string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&episode.ID, &episode.AnimeName, &episode.SeasonNumber, &episode.EpisodeNumber,
		&episode.EpisodeName, &episode.Description, &links,
		&episode.ThumbnailLink, &episode.PosterLink, &status, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	episode.VideoLinks = splitLinks(links)
	episode.Status = Status(status)
	episode.CreatedAt = parseTimestamp(createdAt)
	episode.UpdatedAt = parseTimestamp(updatedAt)
	return &episode, nil
}

func parseTimestamp(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
