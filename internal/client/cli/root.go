package cli

import (
	"github.com/dmitrijs2005/chainkeeper/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the chainkeeper command tree around cfg. Flags
// write straight into cfg, so values given on the command line win over the
// defaults and the config file already loaded into it.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	app := &App{config: cfg}

	root := &cobra.Command{
		Use:   "chainkeeper",
		Short: "Hash-chain credential client",
		Long: `chainkeeper signs in with one-time credentials taken from a hash chain.

Each sign-in discloses the next hash down the chain; the server only ever
stores the last one it accepted. Passwords never leave this machine.`,
		SilenceUsage: true,
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		app.signupCommand(),
		app.signinCommand(),
		app.whoamiCommand(),
		app.signoutCommand(),
		app.pingCommand(),
		app.saltCommand(),
		app.generateCommand(),
		app.parseCommand(),
		app.validateCommand(),
	)
	return root
}
