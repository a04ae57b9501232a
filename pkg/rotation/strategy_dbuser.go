package rotation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/opsloom/credrotate/internal/logging"
)

const databaseUserStrategyType = "database/postgresql/user"

const (
	databaseUsernameLength     = 16
	databaseUserPasswordLength = 24
)

// roleIdentifierPattern is a strict identifier grammar: a leading letter or
// underscore, then up to 62 letters, digits, underscores, or dollar signs.
var roleIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]{0,62}$`)

// DatabaseUserStrategy creates a fresh database login alongside the
// previous one, relying on the server's own VALID UNTIL expiration to
// retire the predecessor. This is the two-generation overlap pattern: the
// old user keeps working until the database expires it.
type DatabaseUserStrategy struct {
	logger *logging.Logger
}

// NewDatabaseUserStrategy constructs a DatabaseUserStrategy.
func NewDatabaseUserStrategy(logger *logging.Logger) *DatabaseUserStrategy {
	return &DatabaseUserStrategy{logger: logger}
}

func (s *DatabaseUserStrategy) StrategyType() string { return databaseUserStrategyType }

func (s *DatabaseUserStrategy) Initialize(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runInitialization(ctx, resource, opCtx, databaseUserStrategyType, s.perform)
}

func (s *DatabaseUserStrategy) Rotate(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runRotation(ctx, resource, opCtx, databaseUserStrategyType, s.perform)
}

func (s *DatabaseUserStrategy) perform(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore) (RotationResult, error) {
	cfg := resource.DatabaseUser
	if cfg == nil {
		return failureResult(resource.Name, "missing DatabaseUser configuration"), nil
	}

	for _, role := range cfg.Roles {
		if !roleIdentifierPattern.MatchString(role) {
			return failureResult(resource.Name, fmt.Sprintf("Invalid role identifier %q", role)), nil
		}
	}

	adminSecretName := cfg.ServerSecretName
	adminValue, err := store.GetSecretValue(ctx, adminSecretName)
	if err != nil {
		return failureResult(resource.Name, fmt.Sprintf("failed to read administrator credential %q: %v", adminSecretName, err)), nil
	}

	var admin DatabaseCredential
	if err := json.Unmarshal([]byte(adminValue), &admin); err != nil {
		return failureResult(resource.Name, fmt.Sprintf("administrator credential %q is not valid JSON", adminSecretName)), nil
	}

	conn, err := opCtx.DBConnector.Connect(ctx, cfg.Hostname, admin.Username, admin.Password)
	if err != nil {
		s.logger.Error("failed to connect to %s as administrator: %v", cfg.Hostname, err)
		return externalFailureResult(resource.Name, cfg.Hostname, "connect as administrator", err), nil
	}
	defer conn.Close()

	if opCtx.IsWhatIf {
		return whatIfResult(resource.Name, "created a new database user"), nil
	}

	username, err := GenerateUsername(cfg.NamePrefix, databaseUsernameLength)
	if err != nil {
		return RotationResult{}, err
	}
	password, err := Generate(databaseUserPasswordLength)
	if err != nil {
		return RotationResult{}, err
	}

	now := opCtx.Clock.Now()
	expiresOn := now.Add(daysToDuration(resource.expirationDaysOrDefault()))

	statement := buildCreateUserStatement(username, password, cfg.Roles, expiresOn)
	if err := conn.ExecContext(ctx, statement); err != nil {
		s.logger.Error("failed to create database user for %s: %v", resource.Name, err)
		return externalFailureResult(resource.Name, cfg.Hostname, "execute CREATE USER", err), nil
	}

	credential := DatabaseCredential{
		Hostname: cfg.Hostname,
		Username: username,
		Password: password,
	}
	payload, err := json.Marshal(credential)
	if err != nil {
		return RotationResult{}, fmt.Errorf("failed to serialize database user credential: %w", err)
	}

	// The CREATE USER statement has already run at this point; a
	// cancellation delivered from here on must not stop the store write,
	// since losing the written credential is worse than ignoring
	// cancellation.
	if _, err := store.UpdateSecret(context.WithoutCancel(ctx), resource.Name, string(payload), "application/json", expiresOn); err != nil {
		s.logger.Error("secret store update failed after database user creation for %s: %v", resource.Name, err)
		return recoveryRequiredResult(resource.Name, err), nil
	}

	s.logger.Info("created database user %s for %s", logging.Secret(username), resource.Name)
	return successResult(resource.Name, "created new database user"), nil
}

// buildCreateUserStatement renders the DDL statement creating username with
// password, membership in roles (omitting IN ROLE entirely when roles is
// empty, since the clause is malformed when the list is empty), and a
// VALID UNTIL timestamp equal to expiresOn in UTC.
func buildCreateUserStatement(username, password string, roles []string, expiresOn time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, `CREATE USER "%s" WITH PASSWORD '%s'`, username, password)

	if len(roles) > 0 {
		quoted := make([]string, len(roles))
		for i, role := range roles {
			quoted[i] = fmt.Sprintf(`"%s"`, role)
		}
		fmt.Fprintf(&b, " IN ROLE %s", strings.Join(quoted, ", "))
	}

	fmt.Fprintf(&b, " VALID UNTIL '%s'", expiresOn.UTC().Format(time.RFC3339))
	return b.String()
}
