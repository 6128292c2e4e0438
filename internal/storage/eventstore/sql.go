package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLStore implements Store on database/sql. The same schema serves the
// sqlite and postgres drivers; only placeholders differ.
type SQLStore struct {
	db     *sql.DB
	config *Config
}

// New validates config and returns an unopened store.
func New(config *Config) (*SQLStore, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("new_store", "invalid configuration", err)
	}
	return &SQLStore{config: config}, nil
}

// Open opens the connection and initialises the schema.
func (s *SQLStore) Open(ctx context.Context) error {
	connStr, err := s.config.BuildConnectionString()
	if err != nil {
		return NewConfigurationError("open", "failed to build connection string", err)
	}

	db, err := sql.Open(s.config.Driver, connStr)
	if err != nil {
		return NewConnectionError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(s.config.MaxOpenConns)
	db.SetMaxIdleConns(s.config.MaxIdleConns)
	db.SetConnMaxLifetime(s.config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return NewConnectionError("open", "failed to ping database", err)
	}

	s.db = db
	if err := s.initSchema(pingCtx); err != nil {
		s.db.Close()
		s.db = nil
		return NewSchemaError("open", "failed to initialize schema", err)
	}
	return nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			id TEXT PRIMARY KEY,
			sequence BIGINT UNIQUE NOT NULL,
			method TEXT NOT NULL,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			value TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL,
			gas_used BIGINT NOT NULL,
			block_time BIGINT NOT NULL,
			changes INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			receipt_id TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			sequence BIGINT NOT NULL,
			contract TEXT NOT NULL,
			name TEXT NOT NULL,
			topic TEXT NOT NULL,
			args TEXT NOT NULL,
			PRIMARY KEY (receipt_id, idx)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_name ON events(name)`,
		`CREATE INDEX IF NOT EXISTS idx_events_topic ON events(topic)`,
		`CREATE INDEX IF NOT EXISTS idx_events_sequence ON events(sequence)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// Close closes the connection.
func (s *SQLStore) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// Ping tests the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// SaveReceipt stores r and its events in one transaction.
func (s *SQLStore) SaveReceipt(ctx context.Context, r *ReceiptRecord) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("save_receipt", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO receipts
		(id, sequence, method, sender, recipient, value, status, reason, gas_used, block_time, changes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID.String(), int64(r.Sequence), r.Method, r.From, r.To, r.Value, r.Status, r.Reason,
		int64(r.GasUsed), r.Timestamp.Unix(), r.Changes)
	if err != nil {
		return s.classify("save_receipt", err)
	}

	insertEvent := s.rebind(`INSERT INTO events
		(receipt_id, idx, sequence, contract, name, topic, args)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, ev := range r.Events {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			return NewQueryError("save_receipt", "failed to encode event args", err)
		}
		if _, err := tx.ExecContext(ctx, insertEvent,
			r.ID.String(), ev.Index, int64(r.Sequence), ev.Contract, ev.Name, ev.Topic, string(args)); err != nil {
			return s.classify("save_receipt", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionError("save_receipt", "failed to commit transaction", err)
	}
	return nil
}

// GetReceipt loads a receipt with its events.
func (s *SQLStore) GetReceipt(ctx context.Context, id uuid.UUID) (*ReceiptRecord, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	var (
		rec       ReceiptRecord
		rawID     string
		seq       int64
		gasUsed   int64
		blockTime int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, sequence, method, sender, recipient, value,
		status, reason, gas_used, block_time, changes FROM receipts WHERE id = ?`), id.String()).Scan(
		&rawID, &seq, &rec.Method, &rec.From, &rec.To, &rec.Value,
		&rec.Status, &rec.Reason, &gasUsed, &blockTime, &rec.Changes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewDatabaseError(ErrorTypeData, "get_receipt", "receipt not found", nil).
			WithCode(codeReceiptNotFound)
	}
	if err != nil {
		return nil, NewQueryError("get_receipt", "failed to query receipt", err)
	}
	rec.ID = id
	rec.Sequence = uint64(seq)
	rec.GasUsed = uint64(gasUsed)
	rec.Timestamp = time.Unix(blockTime, 0).UTC()

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT receipt_id, idx, sequence, contract, name, topic, args
		FROM events WHERE receipt_id = ? ORDER BY idx`), id.String())
	if err != nil {
		return nil, NewQueryError("get_receipt", "failed to query events", err)
	}
	rec.Events, err = scanEvents(rows)
	if err != nil {
		return nil, NewQueryError("get_receipt", "failed to scan events", err)
	}
	return &rec, nil
}

// ListEvents returns matching events ordered by sequence and index.
func (s *SQLStore) ListEvents(ctx context.Context, filter EventFilter) ([]EventRecord, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	if filter.Limit < 0 || filter.Limit > MaxEventLimit || filter.Offset < 0 {
		return nil, ErrInvalidLimit
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultEventLimit
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.Name != "" {
		where = append(where, "name = ?")
		args = append(args, filter.Name)
	}
	if filter.Contract != "" {
		where = append(where, "contract = ?")
		args = append(args, filter.Contract)
	}
	if filter.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, filter.Topic)
	}
	if filter.FromSequence > 0 {
		where = append(where, "sequence >= ?")
		args = append(args, int64(filter.FromSequence))
	}

	query := "SELECT receipt_id, idx, sequence, contract, name, topic, args FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence, idx LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, NewQueryError("list_events", "failed to query events", err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, NewQueryError("list_events", "failed to scan events", err)
	}
	return events, nil
}

// ReceiptCount returns the number of stored receipts.
func (s *SQLStore) ReceiptCount(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrDatabaseClosed
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM receipts").Scan(&count); err != nil {
		return 0, NewQueryError("receipt_count", "failed to count receipts", err)
	}
	return count, nil
}

// LatestSequence returns the highest stored receipt sequence.
func (s *SQLStore) LatestSequence(ctx context.Context) (uint64, error) {
	if s.db == nil {
		return 0, ErrDatabaseClosed
	}
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(sequence) FROM receipts").Scan(&seq); err != nil {
		return 0, NewQueryError("latest_sequence", "failed to query max sequence", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

func scanEvents(rows *sql.Rows) ([]EventRecord, error) {
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			ev    EventRecord
			rawID string
			seq   int64
			args  string
		)
		if err := rows.Scan(&rawID, &ev.Index, &seq, &ev.Contract, &ev.Name, &ev.Topic, &args); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, err
		}
		ev.ReceiptID = id
		ev.Sequence = uint64(seq)
		if err := json.Unmarshal([]byte(args), &ev.Args); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.config.Driver != DriverPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// classify maps driver constraint errors to ErrDuplicateEntry.
func (s *SQLStore) classify(operation string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return NewDatabaseError(ErrorTypeConstraint, operation, "duplicate entry", err).WithCode(codeDuplicateEntry)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return NewDatabaseError(ErrorTypeConstraint, operation, "duplicate entry", err).WithCode(codeDuplicateEntry)
		}
	}
	return NewQueryError(operation, "statement failed", err)
}
