package commands

import (
	"fmt"

	"github.com/opsloom/credrotate/internal/azurecloud"
	"github.com/opsloom/credrotate/internal/logging"
	"github.com/opsloom/credrotate/internal/rotationconfig"
	"github.com/opsloom/credrotate/internal/secretstores/keyvault"
	"github.com/opsloom/credrotate/internal/secretstores/memstore"
	"github.com/opsloom/credrotate/internal/sqlexec"
	"github.com/opsloom/credrotate/pkg/rotation"
)

// Environment carries the flags parsed by the root command down to each
// subcommand.
type Environment struct {
	Logger     *logging.Logger
	ConfigPath string
}

// buildOperationContext loads the resource-configuration file and wires it
// into an OperationContext ready for Initialize/Rotate calls. It also
// returns the loaded Definition, from which the caller takes the resources.
func buildOperationContext(env *Environment) (*rotationconfig.Definition, rotation.OperationContext, error) {
	def, err := rotationconfig.Load(env.ConfigPath)
	if err != nil {
		return nil, rotation.OperationContext{}, err
	}

	clock := rotation.SystemClock{}

	stores := make(map[string]rotation.SecretStore, len(def.Stores))
	for name, storeCfg := range def.Stores {
		store, err := buildStore(storeCfg, clock, env.Logger)
		if err != nil {
			return nil, rotation.OperationContext{}, fmt.Errorf("store %q: %w", name, err)
		}
		stores[name] = store
	}

	cloud, err := buildCloudClient(env.Logger)
	if err != nil {
		return nil, rotation.OperationContext{}, err
	}

	registry := rotation.NewRegistry(
		rotation.NewManualStrategy(env.Logger),
		rotation.NewAdministratorStrategy(cloud, env.Logger),
		rotation.NewDatabaseUserStrategy(env.Logger),
		rotation.NewStorageAccountKeyStrategy(cloud, env.Logger),
	)

	opCtx := rotation.OperationContext{
		Stores:      stores,
		Rotators:    registry.Map(),
		CloudClient: cloud,
		DBConnector: sqlexec.NewPostgresConnector(),
		Clock:       clock,
	}

	return def, opCtx, nil
}

func buildStore(cfg rotationconfig.StoreConfig, clock rotation.Clock, logger *logging.Logger) (rotation.SecretStore, error) {
	switch cfg.Type {
	case "memory":
		return memstore.New(clock), nil
	case "azure-keyvault":
		vaultURL, _ := cfg.Config["vault_url"].(string)
		useManagedIdentity, _ := cfg.Config["use_managed_identity"].(bool)
		return keyvault.New(keyvault.Config{
			VaultURL:           vaultURL,
			UseManagedIdentity: useManagedIdentity,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Type)
	}
}

func buildCloudClient(logger *logging.Logger) (rotation.CloudClient, error) {
	return azurecloud.New(azurecloud.Config{UseManagedIdentity: true}, logger)
}
