package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/common/config"
)

func TestRedisClient_PutArtifact(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.PutArtifact(ctx, "credx:artifacts:", "feature_names.json", []byte(`{"all_features":[]}`)))

	got, err := mr.Get("credx:artifacts:feature_names.json")
	require.NoError(t, err)
	assert.Equal(t, `{"all_features":[]}`, got)
	assert.Zero(t, mr.TTL("credx:artifacts:feature_names.json"))
}

func TestRedisClient_PutArtifactError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &RedisClient{Client: db}
	payload := []byte(`{"feature_names":[]}`)

	mock.ExpectSet("credx:artifacts:scaler.json", payload, 0).SetErr(errors.New("READONLY You can't write against a read only replica"))

	err := client.PutArtifact(context.Background(), "credx:artifacts:", "scaler.json", payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store artifact scaler.json")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestPostgresClient_SaveArtifact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	client := &PostgresClient{DB: db}
	defer client.Close()

	ctx := context.Background()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS model_artifacts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO model_artifacts").
		WithArgs("fair_xgb.json", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))

	require.NoError(t, client.EnsureArtifactTable(ctx, "model_artifacts"))
	version, err := client.SaveArtifact(ctx, "model_artifacts", "fair_xgb.json", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 4, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_RejectsTableName(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	client := &PostgresClient{DB: db}
	defer client.Close()

	assert.Error(t, client.EnsureArtifactTable(context.Background(), "artifacts; DROP TABLE x"))
	_, err = client.SaveArtifact(context.Background(), "Bad-Name", "x", nil)
	assert.Error(t, err)
}

func TestNewPostgres(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, User: "u", Database: "credx", SSLMode: "disable",
		MaxConnections: 2, MaxIdle: 1,
	})
	require.NoError(t, err)
	assert.NotNil(t, client.DB)
	assert.NoError(t, client.Close())
}
