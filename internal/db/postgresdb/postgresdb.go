// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interface for persisting users and their posts. Schema migrations are run
// with goose at startup. Each operation is a single implicit transaction.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

// pgUniqueViolationCode is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the blog storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
// Optionally accepts initialization options, such as WithDBPreReset.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// CreateUser inserts a new user record into the database.
// A duplicate email surfaces as models.ErrEmailAlreadyRegistered - the
// uniqueness constraint in the schema is the final authority.
func (db *PostgresDB) CreateUser(ctx context.Context, email, passwordHash string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email,
		passwordHash,
	)
	var userID int
	err := row.Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	return &user.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
	}, nil
}

// FindUserByEmail fetches a user by email.
// The boolean result reports whether the user exists.
func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`,
		email,
	)

	return scanUser(row)
}

// FindUserByID fetches a user by their id.
// The boolean result reports whether the user exists.
func (db *PostgresDB) FindUserByID(ctx context.Context, id int) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE id = $1`,
		id,
	)

	return scanUser(row)
}

// CreatePost inserts a new post owned by userID and returns it with the
// generated id.
func (db *PostgresDB) CreatePost(ctx context.Context, userID int, text string) (models.Post, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO posts (text, user_id) VALUES ($1, $2) RETURNING id`,
		text,
		userID,
	)
	var postID int
	err := row.Scan(&postID)
	if err != nil {
		return models.Post{}, err
	}

	return models.Post{
		ID:     postID,
		Text:   text,
		UserID: userID,
	}, nil
}

// ListPosts returns all posts of the user ordered by post id.
func (db *PostgresDB) ListPosts(ctx context.Context, userID int) ([]models.Post, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, text, user_id FROM posts WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Post{}
	for rows.Next() {
		var post models.Post
		err = rows.Scan(&post.ID, &post.Text, &post.UserID)
		if err != nil {
			return nil, err
		}

		result = append(result, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeletePost removes the post only when it is owned by userID. It reports
// whether a row was actually deleted; a foreign or absent post both yield
// false.
func (db *PostgresDB) DeletePost(ctx context.Context, userID, postID int) (bool, error) {
	res, err := db.database.ExecContext(
		ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		postID,
		userID,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfPosts returns the total amount of stored posts.
func (db *PostgresDB) GetNumberOfPosts(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM posts`)
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	err := db.database.Close()
	if err != nil {
		return err
	}

	return nil
}

func (db *PostgresDB) count(ctx context.Context, query string) (int64, error) {
	row := db.database.QueryRowContext(ctx, query)
	var result int64
	err := row.Scan(&result)
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

func scanUser(row *sql.Row) (*user.User, bool, error) {
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}
