package rotation

import "time"

// DatabaseUserConfig describes the database-user strategy's configuration,
// nested inside ResourceConfiguration when StrategyType selects that
// strategy.
type DatabaseUserConfig struct {
	// NamePrefix prefixes every generated username. Defaults to "u" when empty.
	NamePrefix string

	// Roles lists role identifiers the new user is granted membership in,
	// in the order they should appear in the DDL's IN ROLE clause.
	Roles []string

	// ServerSecretName names the secret, in the same store, holding the
	// administrator credential (a DatabaseCredential JSON payload) used to
	// connect and issue the CREATE USER statement.
	ServerSecretName string

	// Hostname is the DNS name of the database endpoint to connect to.
	Hostname string
}

// ResourceConfiguration declaratively describes one managed credential.
type ResourceConfiguration struct {
	// Name identifies the secret within its store. Unique within a store.
	Name string

	// StrategyType selects the rotator via the Registry.
	StrategyType string

	// StoreName identifies the target secret store in OperationContext.Stores.
	StoreName string

	// ExpirationDays is the lifetime applied to a newly written secret.
	// Defaults to 90 when zero.
	ExpirationDays float64

	// ExpirationOverlapDays is how many days before true expiration the
	// secret becomes eligible for early rotation. Defaults to 0.
	ExpirationOverlapDays float64

	// ContentType is the MIME label stored alongside the value.
	ContentType string

	// TargetResourceId optionally identifies the backing cloud resource.
	TargetResourceId string

	// DatabaseUser configures the database-user strategy. Nil for other
	// strategy types.
	DatabaseUser *DatabaseUserConfig
}

// expirationDaysOrDefault returns ExpirationDays, defaulting to 90 days.
func (r ResourceConfiguration) expirationDaysOrDefault() float64 {
	if r.ExpirationDays > 0 {
		return r.ExpirationDays
	}
	return 90
}

// SecretInfo is the metadata a SecretStore returns about a secret. The
// value itself is never carried in this record.
type SecretInfo struct {
	Id          string
	Name        string
	ContentType string
	Enabled     bool
	CreatedOn   time.Time
	ExpiresOn   *time.Time
	UpdatedOn   time.Time
	StoreId     string
	Version     string
}

// DatabaseCredential is the JSON payload persisted for administrator and
// database-user secrets.
type DatabaseCredential struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// StorageAccountKeyCredential is the JSON payload persisted for storage
// account key secrets. Name is always exactly "key1" or "key2".
type StorageAccountKeyCredential struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OperationContext carries the ambient state for one driver invocation: the
// read-only maps of stores and rotators, plus the mutable flags a driver
// sets before dispatch. The read-only maps must be safe for concurrent use,
// since a driver may process independent resources in parallel; Force and
// IsWhatIf are set once per run and must not be mutated during that fan-out.
type OperationContext struct {
	// Stores maps StoreName to the SecretStore instance backing it.
	Stores map[string]SecretStore

	// Rotators maps StrategyType to the constructed Strategy handling it.
	Rotators map[string]Strategy

	// CloudClient is the abstract cloud control-plane client for this run.
	// The administrator and storage-key strategies do not read this field;
	// they use the client passed to their constructors.
	CloudClient CloudClient

	// DBConnector opens the database connection the database-user strategy
	// issues its CREATE USER statement over.
	DBConnector DBConnector

	// Clock is the time source used for all expiration arithmetic.
	Clock Clock

	// SecretValue1 is the operator-supplied new value consumed by the
	// manual/generic strategy.
	SecretValue1 string

	// Force bypasses the expiration eligibility check.
	Force bool

	// IsWhatIf suppresses all mutations; a strategy that would otherwise
	// mutate returns a successful "would have..." verdict instead.
	IsWhatIf bool
}

// RotationResult is the verdict returned by Initialize and Rotate.
// WasRotated is true both for a completed mutation and for a successful
// what-if simulation. Strategy and Duration are stamped by runInitialization
// and runRotation after perform returns, so individual strategies never need
// to set them themselves.
type RotationResult struct {
	Name       string
	Strategy   string
	WasRotated bool
	Notes      string
	Duration   time.Duration

	// recoveryRequired marks the one verdict kind that needs a distinct
	// metric: an external mutation succeeded but the store write that
	// should have recorded it failed. Set only by recoveryRequiredResult.
	recoveryRequired bool
}
