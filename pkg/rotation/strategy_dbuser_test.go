package rotation

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDBConnector struct {
	conn *fakeDBConn
	err  error
}

func (f *fakeDBConnector) Connect(ctx context.Context, hostname, username, password string) (DBConn, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

type fakeDBConn struct {
	executed []string
	closed   bool
}

func (c *fakeDBConn) ExecContext(ctx context.Context, statement string) error {
	c.executed = append(c.executed, statement)
	return nil
}

func (c *fakeDBConn) Close() error {
	c.closed = true
	return nil
}

func TestDatabaseUserStrategy_InvalidRoleSkips(t *testing.T) {
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	resource := ResourceConfiguration{
		Name: "s1", StoreName: "m",
		DatabaseUser: &DatabaseUserConfig{
			NamePrefix:       "u",
			Roles:            []string{"good", "bad name"},
			ServerSecretName: "admin",
			Hostname:         "db.example.com",
		},
	}
	opCtx := OperationContext{
		Stores: map[string]SecretStore{"m": store},
		Clock:  FixedClock{At: time.Now()},
	}

	strategy := NewDatabaseUserStrategy(testLogger())
	result, err := strategy.Initialize(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.False(t, result.WasRotated)
	assert.Contains(t, result.Notes, "Invalid role")
}

func TestDatabaseUserStrategy_HappyPath(t *testing.T) {
	admin, _ := json.Marshal(DatabaseCredential{Hostname: "db.example.com", Username: "adminuser", Password: "adminpw"})
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	adminStore := &fakeStore{info: SecretInfo{Name: "admin"}, value: string(admin)}
	multiStore := &multiFakeStore{byName: map[string]*fakeStore{"s1": store, "admin": adminStore}}

	conn := &fakeDBConn{}
	connector := &fakeDBConnector{conn: conn}

	resource := ResourceConfiguration{
		Name: "s1", StoreName: "m", ExpirationDays: 30,
		DatabaseUser: &DatabaseUserConfig{
			NamePrefix:       "app",
			Roles:            []string{"readonly"},
			ServerSecretName: "admin",
			Hostname:         "db.example.com",
		},
	}
	opCtx := OperationContext{
		Stores:      map[string]SecretStore{"m": multiStore},
		Clock:       FixedClock{At: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		DBConnector: connector,
	}

	strategy := NewDatabaseUserStrategy(testLogger())
	result, err := strategy.Initialize(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.True(t, result.WasRotated)
	assert.True(t, conn.closed)
	require.Len(t, conn.executed, 1)

	statement := conn.executed[0]
	assert.True(t, strings.HasPrefix(statement, `CREATE USER "app`))
	assert.Contains(t, statement, `IN ROLE "readonly"`)
	assert.Contains(t, statement, "VALID UNTIL '2025-01-31T00:00:00Z'")

	var credential DatabaseCredential
	require.NoError(t, json.Unmarshal([]byte(store.value), &credential))
	assert.True(t, strings.HasPrefix(credential.Username, "app"))
}

func TestDatabaseUserStrategy_EmptyRolesOmitsInRoleClause(t *testing.T) {
	admin, _ := json.Marshal(DatabaseCredential{Hostname: "db.example.com", Username: "adminuser", Password: "adminpw"})
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	adminStore := &fakeStore{info: SecretInfo{Name: "admin"}, value: string(admin)}
	multiStore := &multiFakeStore{byName: map[string]*fakeStore{"s1": store, "admin": adminStore}}

	conn := &fakeDBConn{}
	connector := &fakeDBConnector{conn: conn}

	resource := ResourceConfiguration{
		Name: "s1", StoreName: "m", ExpirationDays: 30,
		DatabaseUser: &DatabaseUserConfig{
			ServerSecretName: "admin",
			Hostname:         "db.example.com",
		},
	}
	opCtx := OperationContext{
		Stores:      map[string]SecretStore{"m": multiStore},
		Clock:       FixedClock{At: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		DBConnector: connector,
	}

	strategy := NewDatabaseUserStrategy(testLogger())
	_, err := strategy.Initialize(context.Background(), resource, opCtx)
	require.NoError(t, err)

	require.Len(t, conn.executed, 1)
	assert.NotContains(t, conn.executed[0], "IN ROLE")
}

// multiFakeStore dispatches GetSecret/GetSecretValue/UpdateSecret to a
// distinct fakeStore per secret name, so a test can seed an administrator
// credential alongside the resource's own (absent) secret.
type multiFakeStore struct {
	byName map[string]*fakeStore
}

func (m *multiFakeStore) GetSecret(ctx context.Context, name string) (SecretInfo, error) {
	return m.byName[name].GetSecret(ctx, name)
}

func (m *multiFakeStore) GetSecretValue(ctx context.Context, name string) (string, error) {
	return m.byName[name].GetSecretValue(ctx, name)
}

func (m *multiFakeStore) UpdateSecret(ctx context.Context, name, value, contentType string, expiresOn time.Time) (SecretInfo, error) {
	return m.byName[name].UpdateSecret(ctx, name, value, contentType, expiresOn)
}
