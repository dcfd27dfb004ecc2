package vectorindex

import "github.com/rs/zerolog"

// Open returns the persistent SQLite-vec index when dir is non-empty,
// falling back to an in-memory index (and logging the fallback) when dir
// is empty or the persistent backend fails to open — the engine never
// fails to start for want of a vector directory.
func Open(dir string, dims int, log zerolog.Logger) Index {
	if dir == "" {
		log.Debug().Msg("vectorindex: no vector_db_path configured, using in-memory index")
		return NewMemory()
	}

	idx, err := OpenSQLiteIndex(dsnWithDirectory(dir), dims)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("vectorindex: persistent index unavailable, falling back to in-memory")
		return NewMemory()
	}
	return idx
}
