// internal/artifacts/source.go
package artifacts

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"credx-fairscore/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// Source fetches raw artifact payloads by registry key.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	Kind() string
}

// FileSource reads artifacts from a directory.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) Kind() string { return "file" }

func (s *FileSource) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.Clean("/"+name)))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewArtifactNotFoundError(name)
		}
		return nil, errors.NewArtifactStoreError(s.Kind(), err)
	}
	return data, nil
}

// RedisSource reads artifacts stored as string values under KeyPrefix+name.
type RedisSource struct {
	client    redis.Cmdable
	keyPrefix string
}

func NewRedisSource(client redis.Cmdable, keyPrefix string) *RedisSource {
	return &RedisSource{client: client, keyPrefix: keyPrefix}
}

func (s *RedisSource) Kind() string { return "redis" }

func (s *RedisSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+name).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewArtifactNotFoundError(name)
		}
		return nil, errors.NewArtifactStoreError(s.Kind(), err)
	}
	return data, nil
}

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidTableName reports whether table is safe to interpolate into SQL.
func ValidTableName(table string) bool {
	return tableNamePattern.MatchString(table)
}

// PostgresSource reads the latest version of each artifact from a table with
// columns (name text, version int, payload bytea|jsonb).
type PostgresSource struct {
	db    *sql.DB
	query string
}

func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	if table == "" {
		table = "model_artifacts"
	}
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid artifact table name %q", table)
	}
	return &PostgresSource{
		db:    db,
		query: fmt.Sprintf("SELECT payload FROM %s WHERE name = $1 ORDER BY version DESC LIMIT 1", table),
	}, nil
}

func (s *PostgresSource) Kind() string { return "postgres" }

func (s *PostgresSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.query, name).Scan(&payload)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewArtifactNotFoundError(name)
		}
		return nil, errors.NewArtifactStoreError(s.Kind(), err)
	}
	return payload, nil
}
