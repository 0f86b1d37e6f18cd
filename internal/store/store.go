// Package store persists users and tweets in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

var (
	// ErrNotFound indicates a row was not located.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict indicates a uniqueness constraint rejected a write.
	ErrConflict = errors.New("store: conflict")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements user and tweet persistence on a *sql.DB.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "opening database failed, path=%q", path)
	}
	return New(db), nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the time source used for created_at columns.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "pinging database failed")
}

// Migrate applies pending schema migrations and returns the versions applied.
func (s *Store) Migrate(ctx context.Context) ([]int64, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "loading migrations failed")
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return nil, errors.Wrap(err, "configuring migrations failed")
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "applying migrations failed")
	}
	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// FindUserByUsername fetches a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	return scanUser(row)
}

// FindUserByID fetches a user by identifier.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

// UserExists reports whether username is already registered.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE username = ?", username).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "checking username failed")
	}
	return true, nil
}

// CreateUser inserts a user. The UNIQUE constraint on username is the
// authority; a violation is reported as ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	createdAt := s.now().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, createdAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, errors.Wrapf(err, "creating user failed, username=%q", username)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "reading user id failed")
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}

// CreateTweet inserts a tweet. A nil userID records a system-authored tweet.
func (s *Store) CreateTweet(ctx context.Context, text string, userID *int64) (*Tweet, error) {
	createdAt := s.now().Truncate(time.Second)
	var author sql.NullInt64
	if userID != nil {
		author = sql.NullInt64{Int64: *userID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tweets (text, created_at, user_id) VALUES (?, ?, ?)",
		text, createdAt.Unix(), author)
	if err != nil {
		return nil, errors.Wrap(err, "creating tweet failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "reading tweet id failed")
	}
	return &Tweet{ID: id, Text: text, CreatedAt: createdAt, UserID: userID}, nil
}

// ListTweets returns every tweet with its author, newest first.
func (s *Store) ListTweets(ctx context.Context) ([]TweetWithAuthor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tweets.id, tweets.text, tweets.created_at, tweets.user_id, users.username
		FROM tweets
		LEFT JOIN users ON tweets.user_id = users.id
		ORDER BY tweets.created_at DESC, tweets.id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "listing tweets failed")
	}
	defer rows.Close()

	tweets := make([]TweetWithAuthor, 0)
	for rows.Next() {
		var (
			t         TweetWithAuthor
			createdAt int64
			userID    sql.NullInt64
			username  sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Text, &createdAt, &userID, &username); err != nil {
			return nil, errors.Wrap(err, "scanning tweet failed")
		}
		t.CreatedAt = time.Unix(createdAt, 0).UTC()
		if userID.Valid {
			id := userID.Int64
			t.UserID = &id
		}
		t.Username = username.String
		tweets = append(tweets, t)
	}
	return tweets, errors.Wrap(rows.Err(), "iterating tweets failed")
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u         User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "scanning user failed")
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
