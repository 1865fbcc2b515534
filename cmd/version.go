// File: cmd/version.go
package cmd

import "github.com/spf13/cobra"

// Version is the application version.
// This value is intended to be set at build time using ldflags.
// Example: go build -ldflags "-X github.com/xkilldash9x/bugtrap/cmd.Version=1.0.0"
var Version = "0.1.0"

// newVersionCmd prints the version. It skips the config and logger setup.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the bugtrap version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}
