package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // sin .env en el directorio de trabajo

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Import.LotSize)
	assert.Equal(t, "UTF-8", cfg.Import.Charset)
	assert.Equal(t, "sistema", cfg.Import.DefaultUser)
	assert.Equal(t, "legacy", cfg.Catalog.Normalization)
	assert.Nil(t, cfg.Catalog.Replacements)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "*", cfg.HTTP.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_LOT_SIZE", "25")
	t.Setenv("IMPORT_CSV_CHARSET", "ISO-8859-1")
	t.Setenv("CATEGORY_REPLACEMENTS", "Electrónica=Electronica, Menú = Menu")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Import.LotSize)
	assert.Equal(t, "ISO-8859-1", cfg.Import.Charset)
	assert.Equal(t, map[string]string{"Electrónica": "Electronica", "Menú": "Menu"}, cfg.Catalog.Replacements)
}

func TestLoad_LoteInvalido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_LOT_SIZE", "0")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_NormalizacionDesconocida(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATEGORY_NORMALIZATION", "magia")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "inv", Password: "p@ss:word", DBName: "inventario", SSLMode: "disable"}
	assert.Equal(t, "postgres://inv:p%40ss%3Aword@db:5432/inventario?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
