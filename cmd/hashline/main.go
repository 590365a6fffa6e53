// Command hashline is the single HashLine binary: its first argument
// selects the node or seed subcommand, and every flag after that belongs to
// the selected service's own configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hashline/powchain/app/services/node"
	"github.com/hashline/powchain/app/services/seed"
)

func main() {
	root := &cobra.Command{
		Use:   "hashline",
		Short: "HashLine proof-of-work blockchain node and seed daemon",
	}

	root.AddCommand(
		serviceCommand("node", "Run a mining/gossip node", node.Run),
		serviceCommand("seed", "Run a peer-discovery seed", seed.Run),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// serviceCommand wraps a service's Run function in a cobra command that
// does no flag parsing of its own: every argument after the subcommand
// token is left in os.Args for the service's own conf.Parse call to read.
func serviceCommand(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Args = append([]string{os.Args[0] + " " + use}, args...)

			if err := run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			return nil
		},
	}
}
