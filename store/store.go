// Package store keeps dispensed streams in MySQL.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/xor-shift/xoshiro/common"
)

const (
	createTableQuery = "CREATE TABLE IF NOT EXISTS streams (" +
		"session_id INT UNSIGNED NOT NULL, " +
		"stream_index BIGINT UNSIGNED NOT NULL, " +
		"level VARCHAR(8) NOT NULL, " +
		"state CHAR(64) NOT NULL, " +
		"allocated_at DATETIME NOT NULL, " +
		"PRIMARY KEY (session_id, level, stream_index))"

	insertQuery = "INSERT INTO streams (session_id, stream_index, level, state, allocated_at) " +
		"VALUES (?, ?, ?, ?, FROM_UNIXTIME(?)) " +
		"ON DUPLICATE KEY UPDATE state = VALUES(state), allocated_at = VALUES(allocated_at)"

	selectQuery = "SELECT session_id, stream_index, level, state, allocated_at " +
		"FROM streams WHERE session_id = ? ORDER BY level, stream_index"
)

type Store struct {
	db *sql.DB
}

// Row is a stored stream together with its allocation time.
type Row struct {
	common.Stream
	AllocatedAt time.Time `json:"allocatedAt"`
}

func Open(dbConfig *mysql.Config) (*Store, error) {
	db, err := sql.Open("mysql", dbConfig.FormatDSN())
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTableQuery)
	return err
}

// Insert stores a batch of events in one transaction. Re-delivered events
// overwrite their earlier copy.
func (s *Store) Insert(ctx context.Context, events ...common.StreamEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, event := range events {
		stream := event.Stream

		if _, err = stmt.ExecContext(ctx,
			stream.Session, stream.Index, string(stream.Level), stream.State, event.Allocated,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) Streams(ctx context.Context, session uint) ([]Row, error) {
	sqlRows, err := s.db.QueryContext(ctx, selectQuery, session)
	if err != nil {
		return nil, err
	}
	defer sqlRows.Close()

	var rows []Row
	for sqlRows.Next() {
		var row Row
		var level string

		if err = sqlRows.Scan(&row.Session, &row.Index, &level, &row.State, &row.AllocatedAt); err != nil {
			return nil, err
		}

		row.Level = common.JumpLevel(level)
		rows = append(rows, row)
	}

	return rows, sqlRows.Err()
}
