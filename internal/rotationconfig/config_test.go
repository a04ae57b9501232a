package rotationconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
version: 1
stores:
  m:
    type: memory
  vault:
    type: azure-keyvault
    vault_url: https://example.vault.azure.net/
resources:
  s1:
    strategy: manual/generic
    store: m
    expirationDays: 90
  s2:
    strategy: database/postgresql/user
    store: vault
    databaseUser:
      namePrefix: app
      roles: [readonly]
      serverSecretName: admin
      hostname: db.example.com
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "credrotate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	return path
}

func TestLoad_ParsesStoresAndResources(t *testing.T) {
	path := writeSample(t)

	def, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, def.Version)
	require.Contains(t, def.Stores, "vault")
	assert.Equal(t, "azure-keyvault", def.Stores["vault"].Type)

	resources := def.ToResourceConfigurations()
	require.Contains(t, resources, "s2")
	assert.Equal(t, "database/postgresql/user", resources["s2"].StrategyType)
	require.NotNil(t, resources["s2"].DatabaseUser)
	assert.Equal(t, []string{"readonly"}, resources["s2"].DatabaseUser.Roles)
}

func TestLoad_RejectsUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credrotate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
