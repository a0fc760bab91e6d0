package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Pool bounds the connections kept by database/sql. Zero fields take the default.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool fits a handful of office users on a small managed instance.
var DefaultPool = Pool{MaxOpen: 5, MaxIdle: 2, MaxLifetime: 30 * time.Minute}

func (p Pool) withDefaults() Pool {
	if p.MaxOpen <= 0 {
		p.MaxOpen = DefaultPool.MaxOpen
	}
	if p.MaxIdle <= 0 {
		p.MaxIdle = DefaultPool.MaxIdle
	}
	if p.MaxIdle > p.MaxOpen {
		p.MaxIdle = p.MaxOpen
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = DefaultPool.MaxLifetime
	}
	return p
}

type PostgresDB struct {
	Conn   *sql.DB
	Ctx    context.Context
	Cancel context.CancelFunc
	URL    string
	Pool   Pool
}

func NewPostgresDB(url string, pool Pool) *PostgresDB {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	return &PostgresDB{
		Ctx:    ctx,
		Cancel: cancel,
		URL:    url,
		Pool:   pool.withDefaults(),
	}
}

func (p *PostgresDB) open() (*sql.DB, error) {
	conn, err := sql.Open("postgres", p.URL)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(p.Pool.MaxOpen)
	conn.SetMaxIdleConns(p.Pool.MaxIdle)
	conn.SetConnMaxLifetime(p.Pool.MaxLifetime)
	return conn, nil
}

// Connect opens the pool and pings it. Conn stays nil when the ping fails.
func (p *PostgresDB) Connect() error {
	conn, err := p.open()
	if err != nil {
		return err
	}
	if err := conn.PingContext(p.Ctx); err != nil {
		_ = conn.Close()
		return err
	}
	p.Conn = conn
	return nil
}

func (p *PostgresDB) Disconnect() error {
	p.Cancel()
	if p.Conn != nil {
		return p.Conn.Close()
	}
	return nil
}

func (p *PostgresDB) GetContext() context.Context {
	return p.Ctx
}
