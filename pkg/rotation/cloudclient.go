package rotation

import "context"

// DatabaseServerDetails describes the addressable, non-secret facts about a
// managed database server needed to build a DatabaseCredential and, for the
// database-user strategy, to open a connection as the administrator.
type DatabaseServerDetails struct {
	Hostname             string
	AdministratorLogin   string
	FullyQualifiedDomain string
}

// StorageAccountKey is one of a storage account's two access keys.
type StorageAccountKey struct {
	Name  string
	Value string
}

// CloudClient abstracts the control-plane operations the administrator and
// storage-key strategies perform against a cloud provider. TargetResourceId
// identifies the resource within the provider (an ARM resource ID, in the
// concrete implementation).
type CloudClient interface {
	// GetDatabaseServerDetails returns the addressable facts about the
	// database server identified by targetResourceId.
	GetDatabaseServerDetails(ctx context.Context, targetResourceId string) (DatabaseServerDetails, error)

	// UpdateDatabaseAdministratorPassword sets the administrator password
	// on the database server identified by targetResourceId.
	UpdateDatabaseAdministratorPassword(ctx context.Context, targetResourceId, newPassword string) error

	// GetTwoStorageAccountKeys returns both access keys currently
	// provisioned on the storage account identified by targetResourceId,
	// in provider-defined order.
	GetTwoStorageAccountKeys(ctx context.Context, targetResourceId string) ([2]StorageAccountKey, error)

	// RegenerateStorageAccountKey regenerates the named key ("key1" or
	// "key2") on the storage account and returns its new value.
	RegenerateStorageAccountKey(ctx context.Context, targetResourceId, keyName string) (StorageAccountKey, error)
}
