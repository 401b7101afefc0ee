package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	EnvFile string
}

// NewRootCommand creates the account-service command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "account-service",
		Short:         "Accounts and messages with soft deletion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file loaded before the environment (default .env)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func (o *RootOptions) envFiles() []string {
	if o.EnvFile == "" {
		return nil
	}
	return []string{o.EnvFile}
}
