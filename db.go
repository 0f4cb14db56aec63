package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.etcd.io/bbolt"

	"github.com/rexlx/sitevet/normalize"
)

// historyLimit caps the stored scan history. Writes prune past it, so a
// reader never sees more than this many records.
const historyLimit = 10

const historyKey = "scan_history"

type HistoryRecord struct {
	URL       string               `json:"url"`
	Timestamp time.Time            `json:"timestamp"`
	Result    []normalize.Category `json:"result"`
}

type Database interface {
	AddHistory(rec HistoryRecord) error
	GetHistory() ([]HistoryRecord, error)
	GetUserByEmail(email string) (User, error)
	AddUser(u User) error
	Close() error
}

type BboltDB struct {
	DB *bbolt.DB
}

func NewBboltDB(path string) (*BboltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{"history", "users"} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BboltDB{DB: db}, nil
}

func (db *BboltDB) AddHistory(rec HistoryRecord) error {
	return db.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("history"))
		if err != nil {
			return err
		}
		history := decodeHistory(b.Get([]byte(historyKey)))
		history = append([]HistoryRecord{rec}, history...)
		if len(history) > historyLimit {
			history = history[:historyLimit]
		}
		v, err := json.Marshal(history)
		if err != nil {
			return err
		}
		return b.Put([]byte(historyKey), v)
	})
}

func (db *BboltDB) GetHistory() ([]HistoryRecord, error) {
	var history []HistoryRecord
	err := db.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte("history"))
		if b == nil {
			return nil
		}
		history = decodeHistory(b.Get([]byte(historyKey)))
		return nil
	})
	return history, err
}

// decodeHistory tolerates a missing or corrupted stored slice: history is
// advisory, so bad bytes degrade to an empty list instead of an error.
func decodeHistory(v []byte) []HistoryRecord {
	if v == nil {
		return []HistoryRecord{}
	}
	var history []HistoryRecord
	if err := json.Unmarshal(v, &history); err != nil {
		return []HistoryRecord{}
	}
	return history
}

func (db *BboltDB) GetUserByEmail(email string) (User, error) {
	var user User
	err := db.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte("users"))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(email))
		if v == nil {
			return nil
		}
		return user.UnmarshalBinary(v)
	})
	return user, err
}

func (db *BboltDB) AddUser(u User) error {
	u.Updated = time.Now()
	return db.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("users"))
		if err != nil {
			return err
		}
		v, err := u.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put([]byte(u.Email), v)
	})
}

func (db *BboltDB) Close() error {
	return db.DB.Close()
}

// POSTGRES TYPE
type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{Pool: pool}
	if err := p.createTables(); err != nil {
		return nil, err
	}
	return p, nil
}

func (db *PostgresDB) createTables() error {
	_, err := db.Pool.Exec(context.Background(),
		`CREATE TABLE IF NOT EXISTS history (
            id SERIAL PRIMARY KEY,
            url TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            result JSONB
        );
        CREATE TABLE IF NOT EXISTS users (
            email TEXT PRIMARY KEY,
            data JSONB NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at DESC);`)
	return err
}

func (db *PostgresDB) AddHistory(rec HistoryRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(context.Background(),
		"INSERT INTO history (url, created_at, result) VALUES ($1, $2, $3)",
		rec.URL, rec.Timestamp, result)
	if err != nil {
		return err
	}
	// prune everything past the newest historyLimit rows
	_, err = db.Pool.Exec(context.Background(), `
        DELETE FROM history WHERE id NOT IN (
            SELECT id FROM history ORDER BY created_at DESC, id DESC LIMIT $1
        )`, historyLimit)
	return err
}

func (db *PostgresDB) GetHistory() ([]HistoryRecord, error) {
	rows, err := db.Pool.Query(context.Background(),
		"SELECT url, created_at, result FROM history ORDER BY created_at DESC, id DESC LIMIT $1",
		historyLimit)
	if err != nil {
		return []HistoryRecord{}, nil
	}
	defer rows.Close()

	history := []HistoryRecord{}
	for rows.Next() {
		var rec HistoryRecord
		var result []byte
		if err := rows.Scan(&rec.URL, &rec.Timestamp, &result); err != nil {
			continue
		}
		if err := json.Unmarshal(result, &rec.Result); err != nil {
			rec.Result = nil
		}
		history = append(history, rec)
	}
	return history, nil
}

func (db *PostgresDB) GetUserByEmail(email string) (User, error) {
	var user User
	var data []byte
	err := db.Pool.QueryRow(context.Background(),
		"SELECT data FROM users WHERE email = $1", email).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return user, nil
	}
	if err != nil {
		return user, err
	}
	return user, user.UnmarshalBinary(data)
}

func (db *PostgresDB) AddUser(u User) error {
	u.Updated = time.Now()
	data, err := u.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(context.Background(), `
        INSERT INTO users (email, data) VALUES ($1, $2)
        ON CONFLICT (email) DO UPDATE SET data = EXCLUDED.data`,
		u.Email, data)
	return err
}

func (db *PostgresDB) Close() error {
	db.Pool.Close()
	return nil
}
