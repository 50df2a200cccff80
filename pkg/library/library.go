// Package library provides read-only access to an osu!lazer client database:
// beatmap sets, their metadata, and the file rows that point into the
// content-addressed store. The database is opened for the resolution phase
// only and must be closed before any transfer begins.
package library

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	_ "modernc.org/sqlite"

	"github.com/osulift/osulift/pkg/resolve"
)

// setQuery joins each beatmap set with its metadata. GROUP BY collapses any
// faulty multi-metadata join to a single representative row per set.
const setQuery = `
SELECT s.ID, s.OnlineBeatmapSetID, m.Artist, m.Title, m.Author
FROM BeatmapSetInfo s
LEFT JOIN BeatmapMetadata m ON m.ID = s.MetadataID
GROUP BY s.ID`

const fileQuery = `
SELECT f.BeatmapSetInfoID, f.Filename, fi.Hash
FROM BeatmapSetFileInfo f
JOIN FileInfo fi ON fi.ID = f.FileInfoID`

// 💾 Library wraps the client database. It implements resolve.Source.
type Library struct {
	db   *sql.DB
	path string
}

// 🏭 Open opens the client database read-only and verifies it is reachable.
// Failure here is fatal to the whole run: nothing can be resolved without it.
func Open(ctx context.Context, path string) (*Library, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Errorf("opening client database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Errorf("pinging client database: %w", err)
	}
	return &Library{db: db, path: path}, nil
}

// Close releases the database handle.
func (l *Library) Close() error {
	if err := l.db.Close(); err != nil {
		return errors.Errorf("closing client database: %w", err)
	}
	return nil
}

// BeatmapSets returns one row per beatmap set, metadata joined in. Nullable
// columns come back as nil pointers.
func (l *Library) BeatmapSets(ctx context.Context) ([]resolve.Set, error) {
	rows, err := l.db.QueryContext(ctx, setQuery)
	if err != nil {
		return nil, errors.Errorf("querying beatmap sets: %w", err)
	}
	defer rows.Close()

	var sets []resolve.Set
	for rows.Next() {
		var (
			s                     resolve.Set
			onlineID              sql.NullInt64
			artist, title, author sql.NullString
		)
		if err := rows.Scan(&s.ID, &onlineID, &artist, &title, &author); err != nil {
			return nil, errors.Errorf("scanning beatmap set row: %w", err)
		}
		if onlineID.Valid {
			s.OnlineID = &onlineID.Int64
		}
		if artist.Valid {
			s.Artist = &artist.String
		}
		if title.Valid {
			s.Title = &title.String
		}
		if author.Valid {
			s.Author = &author.String
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("iterating beatmap set rows: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("sets", len(sets)).Msg("loaded beatmap sets")
	return sets, nil
}

// SetFiles returns every file row joined with its content hash, in the
// database's natural order.
func (l *Library) SetFiles(ctx context.Context) ([]resolve.SetFile, error) {
	rows, err := l.db.QueryContext(ctx, fileQuery)
	if err != nil {
		return nil, errors.Errorf("querying set files: %w", err)
	}
	defer rows.Close()

	var files []resolve.SetFile
	for rows.Next() {
		var f resolve.SetFile
		if err := rows.Scan(&f.SetID, &f.Filename, &f.Hash); err != nil {
			return nil, errors.Errorf("scanning set file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("iterating set file rows: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(files)).Msg("loaded set files")
	return files, nil
}

// allowed tables for TableCount. Table names cannot be bound as query
// parameters, so anything else is rejected outright.
var countableTables = map[string]bool{
	"BeatmapSetInfo":     true,
	"BeatmapMetadata":    true,
	"BeatmapSetFileInfo": true,
	"FileInfo":           true,
}

// TableCount returns the row count of one of the known tables. Used for
// sanity logging before resolution and to pre-size buffers.
func (l *Library) TableCount(ctx context.Context, table string) (int64, error) {
	if !countableTables[table] {
		return 0, errors.Errorf("unknown table %q", table)
	}
	var n int64
	if err := l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, errors.Errorf("counting rows in %s: %w", table, err)
	}
	return n, nil
}
