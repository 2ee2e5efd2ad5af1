// Package store persists ledger documents in SQLite.
//
// It is a document store on purpose: trades, crypto and forex rows share one
// table with a tab discriminator, cash rows use another tab, and every row
// is a JSON document addressed by its id. The position engine never queries
// here directly; callers fetch document slices and hand them to the engine.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/mlanders/tradebook"
)

// Ledger tabs. Trades, crypto and forex documents all carry their tab as
// the document type; cash documents have their own shape.
const (
	TabTrades = tradebook.ClassTrades
	TabCrypto = tradebook.ClassCrypto
	TabForex  = tradebook.ClassForex
	TabCash   = "cash"
)

// ValidTab reports whether tab names a known ledger tab.
func ValidTab(tab string) bool {
	switch tab {
	case TabTrades, TabCrypto, TabForex, TabCash:
		return true
	}
	return false
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	tab        TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_tab ON documents(tab);
`

// ErrNotFound reports that no document matched the given tab and id.
var ErrNotFound = errors.New("document not found")

// Store is a SQLite-backed document store for ledger records.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the document store at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open store at %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialise store schema: %w", err)
	}
	return &Store{db: db, log: log.With().Str("component", "store").Logger()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// InsertTrade stores a trade document under the given tab and returns the
// generated id. The document's Type field is overwritten with the tab, the
// way the ingestion API stamps it.
func (s *Store) InsertTrade(tab string, rec tradebook.RawRecord) (string, error) {
	if tab != TabTrades && tab != TabCrypto && tab != TabForex {
		return "", fmt.Errorf("invalid trade tab %q", tab)
	}
	rec.ID = uuid.NewString()
	rec.Type = tab
	return rec.ID, s.insert(tab, rec.ID, rec)
}

// InsertCash stores a cash document and returns the generated id.
// A missing entry type defaults to deposit.
func (s *Store) InsertCash(rec tradebook.RawCashRecord) (string, error) {
	rec.ID = uuid.NewString()
	if rec.EntryType == "" {
		rec.EntryType = tradebook.EntryDeposit
	}
	return rec.ID, s.insert(TabCash, rec.ID, rec)
}

func (s *Store) insert(tab, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not marshal document: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO documents (id, tab, doc, created_at) VALUES (?, ?, ?, ?)`,
		id, tab, string(body), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert %s document: %w", tab, err)
	}
	s.log.Debug().Str("tab", tab).Str("id", id).Msg("document inserted")
	return nil
}

// Trades returns the trade documents of one tab, or of all three trade tabs
// when tab is empty, in insertion order.
func (s *Store) Trades(tab string) ([]tradebook.RawRecord, error) {
	var rows *sql.Rows
	var err error
	if tab == "" {
		rows, err = s.db.Query(
			`SELECT doc FROM documents WHERE tab IN (?, ?, ?) ORDER BY rowid`,
			TabTrades, TabCrypto, TabForex,
		)
	} else {
		if tab != TabTrades && tab != TabCrypto && tab != TabForex {
			return nil, fmt.Errorf("invalid trade tab %q", tab)
		}
		rows, err = s.db.Query(`SELECT doc FROM documents WHERE tab = ? ORDER BY rowid`, tab)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query trade documents: %w", err)
	}
	defer rows.Close()

	var records []tradebook.RawRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("could not scan trade document: %w", err)
		}
		var rec tradebook.RawRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("could not decode trade document: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Cash returns all cash documents in insertion order.
func (s *Store) Cash() ([]tradebook.RawCashRecord, error) {
	rows, err := s.db.Query(`SELECT doc FROM documents WHERE tab = ? ORDER BY rowid`, TabCash)
	if err != nil {
		return nil, fmt.Errorf("could not query cash documents: %w", err)
	}
	defer rows.Close()

	var records []tradebook.RawCashRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("could not scan cash document: %w", err)
		}
		var rec tradebook.RawCashRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("could not decode cash document: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one document by id. Removing a trade restates positions
// only because callers re-fetch and replay the remaining history; there is
// no local patching of derived state.
func (s *Store) Delete(tab, id string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE tab = ? AND id = ?`, tab, id)
	if err != nil {
		return fmt.Errorf("could not delete document %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no %s document with id %q: %w", tab, id, ErrNotFound)
	}
	s.log.Debug().Str("tab", tab).Str("id", id).Msg("document deleted")
	return nil
}
