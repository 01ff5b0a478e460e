package token

import (
	"github.com/ZhaoShanGeng/antigravity2api/cmd/util"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
	"github.com/spf13/cobra"
)

var (
	localStore store.IStore

	// TokenCommands represents the token command group
	TokenCommands = &cobra.Command{
		Use:               "token",
		Short:             "Manage token records in the store file",
		PersistentPreRunE: setupStore,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return localStore.Close()
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common store flags to the token command
	util.SetupStoreFlags(TokenCommands)

	// Add subcommands
	TokenCommands.AddCommand(listCmd)
	TokenCommands.AddCommand(getCmd)
	TokenCommands.AddCommand(setCmd)
	TokenCommands.AddCommand(mergeCmd)
	TokenCommands.AddCommand(disableCmd)
	TokenCommands.AddCommand(saltCmd)
}

// setupStore opens the configured store file
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	localStore = util.GetStore()
	return nil
}
