package persist

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"duskfall/server/internal/state"
	"duskfall/server/internal/telemetry"
)

const killSchema = `
CREATE TABLE IF NOT EXISTS kill_counts (
	contributor TEXT NOT NULL,
	species     TEXT NOT NULL,
	tier        INTEGER NOT NULL,
	elite       INTEGER NOT NULL,
	kills       INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (contributor, species, tier, elite)
);`

type killRow struct {
	contributor string
	species     state.Species
	tier        int
	elite       bool
}

// SQLite records kills through a single writer goroutine so the combat path
// never blocks on disk. Overflow is dropped and counted. The queue channel is
// never closed; combat paths may still be sending when Close runs, so the
// writer is stopped through done and drains what is already queued.
type SQLite struct {
	db     *sql.DB
	ch     chan killRow
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	dropped atomic.Uint64
	logger  telemetry.Logger
}

func OpenSQLite(path string, logger telemetry.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	if _, err := db.Exec(killSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: apply schema: %w", err)
	}
	s := &SQLite{
		db:     db,
		ch:     make(chan killRow, 256),
		done:   make(chan struct{}),
		logger: logger,
	}
	s.wg.Add(1)
	go s.writer()
	return s, nil
}

func (s *SQLite) RecordKill(contributor string, species state.Species, tier int, elite bool) {
	if s == nil || contributor == "" || s.closed.Load() {
		return
	}
	select {
	case s.ch <- killRow{contributor: contributor, species: species, tier: tier, elite: elite}:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLite) writer() {
	defer s.wg.Done()
	for {
		select {
		case row := <-s.ch:
			s.insert(row)
		case <-s.done:
			for {
				select {
				case row := <-s.ch:
					s.insert(row)
				default:
					return
				}
			}
		}
	}
}

func (s *SQLite) insert(row killRow) {
	elite := 0
	if row.elite {
		elite = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO kill_counts (contributor, species, tier, elite, kills, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(contributor, species, tier, elite)
		DO UPDATE SET kills = kills + 1, updated_at = excluded.updated_at`,
		row.contributor, string(row.species), row.tier, elite, time.Now().Unix())
	if err != nil && s.logger != nil {
		s.logger.Printf("persist: record kill: %v", err)
	}
}

// Dropped reports how many records overflowed the writer queue.
func (s *SQLite) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

func (s *SQLite) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
