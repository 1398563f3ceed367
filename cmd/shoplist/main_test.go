package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
	"github.com/vyrodovalexey/shoplist-api/internal/config"
	"github.com/vyrodovalexey/shoplist-api/internal/store"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

func TestInitLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		t.Run(level, func(t *testing.T) {
			logger, err := initLogger(level)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestCreateAuthenticator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name       string
		cfg        config.Config
		wantMethod auth.Method
		wantErr    bool
	}{
		{name: "none", cfg: config.Config{AuthMode: "none"}, wantMethod: auth.MethodNone},
		{name: "empty", cfg: config.Config{}, wantMethod: auth.MethodNone},
		{name: "basic", cfg: config.Config{AuthMode: "basic", BasicAuthUsers: "ana:" + string(hash)}, wantMethod: auth.MethodBasic},
		{name: "basic bad config", cfg: config.Config{AuthMode: "basic", BasicAuthUsers: "ana"}, wantErr: true},
		{name: "apikey", cfg: config.Config{AuthMode: "apikey", APIKeys: "k1:android"}, wantMethod: auth.MethodAPIKey},
		{name: "multi", cfg: config.Config{AuthMode: "multi", APIKeys: "k1:android"}, wantMethod: auth.MethodMulti},
		{name: "multi empty", cfg: config.Config{AuthMode: "multi"}, wantErr: true},
		{name: "multi bad key", cfg: config.Config{AuthMode: "multi", APIKeys: "k1"}, wantErr: true},
		{name: "unknown", cfg: config.Config{AuthMode: "oidc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := createAuthenticator(&tt.cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, a.Method())
		})
	}
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, closeFn, err := openStore(&config.Config{StoreDriver: config.StoreMemory})
		require.NoError(t, err)
		assert.IsType(t, &store.MemoryStore{}, s)
		assert.NoError(t, closeFn())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lists.db")
		s, closeFn, err := openStore(&config.Config{StoreDriver: config.StoreSQLite, DBPath: path})
		require.NoError(t, err)
		assert.IsType(t, &store.SQLiteStore{}, s)
		assert.NoError(t, closeFn())
		assert.FileExists(t, path)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := openStore(&config.Config{StoreDriver: "redis"})
		assert.Error(t, err)
	})
}

func TestLoadTable(t *testing.T) {
	table, err := loadTable("")
	require.NoError(t, err)
	assert.Contains(t, table.Names(), validation.SchemaProductList)

	_, err = loadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestSchemasCommand(t *testing.T) {
	t.Setenv(config.EnvSchemaFile, "")

	out, err := execute(t, "schemas")

	require.NoError(t, err)
	parsed, err := validation.ParseTable([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, validation.DefaultTable().Names(), parsed.Names())
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
schemas:
  newList:
    - field: name
      tag: required
      message: Enter the list name
`), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(`
schemas:
  newList:
    - field: name
      tag: no_such_tag
`), 0o600))

	t.Run("valid file", func(t *testing.T) {
		out, err := execute(t, "validate", good)
		require.NoError(t, err)
		assert.True(t, strings.Contains(out, "newList: 1 rules"), out)
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := execute(t, "validate", bad)
		assert.ErrorIs(t, err, validation.ErrInvalidSchema)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := execute(t, "validate")
		assert.Error(t, err)
	})
}

func TestServeCommand_InvalidFlags(t *testing.T) {
	t.Setenv(config.EnvStoreDriver, "")

	_, err := execute(t, "serve", "--store", "redis")

	assert.ErrorIs(t, err, config.ErrInvalidStoreDriver)
}
