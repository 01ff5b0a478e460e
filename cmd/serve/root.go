package serve

import (
	"context"
	"time"

	"github.com/ZhaoShanGeng/antigravity2api/api"
	cmdUtil "github.com/ZhaoShanGeng/antigravity2api/cmd/util"
	"github.com/ZhaoShanGeng/antigravity2api/lib/edgeconfig"
	"github.com/ZhaoShanGeng/antigravity2api/lib/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &api.Config{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the token store API server",
		Long:    `Start the token store API server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is A2A_<flag> (e.g. A2A_AUTH_TOKEN=secret)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add store flags
	cmdUtil.SetupStoreFlags(ServeCmd)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. 0.0.0.0:8080)"))

	key = "auth-token"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Bearer token protecting the /api routes. If empty, the routes are unprotected (local development only)"))

	key = "edge-config-id"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Vercel Edge Config ID to seed an empty store from. Leave empty to disable seeding"))

	key = "edge-config-token"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Read access token for the Edge Config"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts it to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.AuthToken = viper.GetString("auth-token")
	serveCmdConfig.StorePath = cmdUtil.GetStorePath()
	serveCmdConfig.CacheTTL = viper.GetDuration("cache-ttl")
	serveCmdConfig.EdgeConfigID = viper.GetString("edge-config-id")
	serveCmdConfig.EdgeConfigToken = viper.GetString("edge-config-token")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return logging.SetLevel(serveCmdConfig.LogLevel)
}

// run starts the API server
func run(_ *cobra.Command, _ []string) error {
	logger := logging.GetLogger("serve")
	logger.Infof("configuration:%s", serveCmdConfig.String())

	// create the store
	s := cmdUtil.GetStore()
	defer s.Close()

	// seed an empty store from the edge config if configured
	if serveCmdConfig.EdgeConfigID != "" {
		client := edgeconfig.NewClient(edgeconfig.Options{
			ID:    serveCmdConfig.EdgeConfigID,
			Token: serveCmdConfig.EdgeConfigToken,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := edgeconfig.SeedStore(ctx, client, s); err != nil {
			// a failed seed must not keep the server from starting
			logger.Errorf("failed to seed store from edge config: %v", err)
		}
	}

	return api.NewServer(*serveCmdConfig, s).Serve()
}
