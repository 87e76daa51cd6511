package snapshot

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres хранит снимок одной строкой в PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт драйвер и инициализирует схему через миграции.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool}

	if err := p.runMigrations(connCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Load читает снимок из строки с фиксированным пространством имён.
func (p *Postgres) Load(ctx context.Context) (model.State, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM snapshots WHERE namespace = $1`,
		Namespace,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.State{}, ErrNoSnapshot
		}
		return model.State{}, fmt.Errorf("select snapshot: %w", err)
	}

	return decode(payload)
}

// Save записывает снимок: UPDATE существующей строки, при её отсутствии —
// INSERT. Гонка двух экземпляров за первую запись разрешается через
// уникальное ограничение повторным UPDATE.
func (p *Postgres) Save(ctx context.Context, st model.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE snapshots SET payload = $2, updated_at = now() WHERE namespace = $1`,
		Namespace, data,
	)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO snapshots (namespace, payload, updated_at) VALUES ($1, $2, now())`,
		Namespace, data,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			_, err = p.pool.Exec(ctx,
				`UPDATE snapshots SET payload = $2, updated_at = now() WHERE namespace = $1`,
				Namespace, data,
			)
			if err != nil {
				return fmt.Errorf("update snapshot after race: %w", err)
			}
			return nil
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
