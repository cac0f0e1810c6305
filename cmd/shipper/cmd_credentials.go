package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sqs-log-shipper/pkg/credentials"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Resolve AWS credentials the way the appender does and show which source won",
	Args:  cobra.NoArgs,
	RunE:  runCredentials,
}

func init() {
	credentialsCmd.Flags().Duration("timeout", 10*time.Second, "Time allowed for the lookup (0: no limit)")
	viper.BindPFlag("credentials.timeout", credentialsCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(credentialsCmd)
}

func runCredentials(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := closeContext(viper.GetDuration("credentials.timeout"))
	defer cancel()

	chain := credentials.DefaultChain(credentials.Settings{
		AccessKey:        cfg.Appender.AccessKey,
		SecretKey:        cfg.Appender.SecretKey,
		Profile:          cfg.Appender.Profile,
		CredentialsFiles: cfg.Appender.CredentialsFiles,
		ConfigFiles:      cfg.Appender.ConfigFiles,
		MetadataEndpoint: cfg.Appender.MetadataEndpoint,
	}, cfg.PropertyStore())

	creds, err := chain.Resolve(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("source:     %s\n", creds.Source)
	fmt.Printf("access key: %s\n", maskKey(creds.AccessKeyID))
	if creds.CanExpire {
		fmt.Printf("expires:    %s\n", creds.Expires.Format(time.RFC3339))
	}
	return nil
}

// maskKey keeps the last four characters of a key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
