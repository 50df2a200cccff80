// Package resolve turns relational beatmap metadata into a concrete list of
// filesystem transfer instructions: one (source, destination) pair per file
// row, with the source pointing into the content-addressed store and the
// destination into the one-folder-per-set layout the stable client expects.
package resolve

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📦 Set is one beatmap set row joined with its metadata. Nullable columns
// surface as nil pointers rather than sentinel strings.
type Set struct {
	ID       int64   // Internal database ID
	OnlineID *int64  // Online beatmap set ID, if the set was ever submitted
	Artist   *string // Song artist
	Title    *string // Song title
	Author   *string // Mapper name
}

// 📄 SetFile is one file row: a named file belonging to a set, backed by a
// hash-addressed blob in the content store.
type SetFile struct {
	SetID    int64  // Owning beatmap set's internal ID
	Filename string // Path relative to the set's folder (e.g. "bg.jpg")
	Hash     string // Lowercase hex content hash
}

// 🔌 Source is the read-only relational view the resolver consumes.
type Source interface {
	// BeatmapSets returns one row per beatmap set.
	BeatmapSets(ctx context.Context) ([]Set, error)
	// SetFiles returns every file row with its content hash.
	SetFiles(ctx context.Context) ([]SetFile, error)
}

// 🔗 Pair is a single transfer instruction. Immutable once computed.
type Pair struct {
	Source string // Absolute path into the content store
	Dest   string // Absolute path under the destination root
}

// 📊 Result is the outcome of a resolution pass.
type Result struct {
	Pairs    []Pair // One per valid file row, in query order
	Skipped  int    // Rows dropped for data-integrity reasons
	Excluded int    // Rows dropped by exclude patterns
}

// 🔧 Options tunes a resolution pass.
type Options struct {
	// Exclude holds doublestar glob patterns matched against each file's
	// set-relative filename. Matching files are left out of the pair list.
	Exclude []string
}

// reserved characters that cannot appear in a Windows folder name.
const reservedChars = `<>:"/\|?*`

// FolderName computes the destination folder for a beatmap set. It is a pure
// function of the four metadata fields: "<onlineID> <artist> - <title>
// [<author>]", where absent fields contribute nothing. The result is trimmed
// and every filesystem-reserved character is replaced with a dash.
func FolderName(onlineID *int64, artist, title, author *string) string {
	var b strings.Builder
	if onlineID != nil {
		b.WriteString(strconv.FormatInt(*onlineID, 10))
		b.WriteString(" ")
	}
	if artist != nil {
		b.WriteString(*artist)
	}
	b.WriteString(" - ")
	if title != nil {
		b.WriteString(*title)
	}
	if author != nil {
		b.WriteString(" [" + *author + "]")
	}

	name := strings.TrimSpace(b.String())
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) {
			return '-'
		}
		return r
	}, name)
}

// HashPath maps a content hash to its location in the store: the first
// character is a one-level shard, the first two a second-level shard, and the
// full hash is the final component.
func HashPath(contentRoot, hash string) (string, error) {
	if len(hash) < 2 {
		return "", errors.Errorf("malformed content hash %q: need at least 2 characters", hash)
	}
	return filepath.Join(contentRoot, hash[:1], hash[:2], hash), nil
}

// Resolve queries the source and produces one Pair per file row. Rows with a
// malformed hash or a set ID that has no folder name are skipped and counted,
// never fatal. The source is not mutated and the filesystem is not touched.
func Resolve(ctx context.Context, src Source, contentRoot, destRoot string, opts Options) (Result, error) {
	logger := zerolog.Ctx(ctx)

	sets, err := src.BeatmapSets(ctx)
	if err != nil {
		return Result{}, errors.Errorf("querying beatmap sets: %w", err)
	}

	// Set ID → folder name. Last-seen wins if the join ever yields
	// duplicate rows for one ID.
	folders := make(map[int64]string, len(sets))
	for _, s := range sets {
		folders[s.ID] = FolderName(s.OnlineID, s.Artist, s.Title, s.Author)
	}

	files, err := src.SetFiles(ctx)
	if err != nil {
		return Result{}, errors.Errorf("querying set files: %w", err)
	}

	res := Result{Pairs: make([]Pair, 0, len(files))}
	for _, f := range files {
		if excluded(f.Filename, opts.Exclude, logger) {
			res.Excluded++
			continue
		}

		folder, ok := folders[f.SetID]
		if !ok {
			logger.Warn().
				Int64("set_id", f.SetID).
				Str("filename", f.Filename).
				Msg("file row references unknown beatmap set, skipping")
			res.Skipped++
			continue
		}

		source, err := HashPath(contentRoot, f.Hash)
		if err != nil {
			logger.Warn().
				Int64("set_id", f.SetID).
				Str("filename", f.Filename).
				Err(err).
				Msg("skipping file with malformed hash")
			res.Skipped++
			continue
		}

		res.Pairs = append(res.Pairs, Pair{
			Source: source,
			Dest:   filepath.Join(destRoot, folder, filepath.FromSlash(f.Filename)),
		})
	}

	logger.Debug().
		Int("pairs", len(res.Pairs)).
		Int("skipped", res.Skipped).
		Int("excluded", res.Excluded).
		Msg("path resolution complete")

	return res, nil
}

// 🔍 excluded checks a filename against the exclude patterns.
func excluded(filename string, patterns []string, logger *zerolog.Logger) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, filepath.ToSlash(filename))
		if err != nil {
			logger.Debug().Str("pattern", pattern).Str("file", filename).Err(err).Msg("bad exclude pattern")
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
