package cli

import (
	"fmt"

	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
	"github.com/spf13/cobra"
)

func (a *App) saltCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "salt",
		Short: "Print a random salt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(func(rc *ratchet.Config) { rc.SaltSize = size })
			if err != nil {
				return err
			}
			salt, err := m.GenerateSalt()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), salt)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", ratchet.DefaultConfig().SaltSize, "salt size in bytes")
	return cmd
}

func (a *App) generateCommand() *cobra.Command {
	var (
		index  int
		salt   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Derive the credential at an index of a chain",
		Long: `Derive the credential at --index from a password and --salt.

Without --salt a fresh one is generated. The password is read without echo,
or as one line from standard input when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(nil)
			if err != nil {
				return err
			}
			if salt == "" {
				if salt, err = m.GenerateSalt(); err != nil {
					return err
				}
			}

			password, err := GetPassword(a.reader(cmd), "Enter password: ", cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out, err := m.Generate(cmd.Context(), ratchet.GenerateRequest{Password: password, Index: index, Salt: salt, AsJSON: asJSON})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", ratchet.DefaultConfig().MaxIndex, "chain index")
	cmd.Flags().StringVar(&salt, "salt", "", "encoded salt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON form instead of a token")
	return cmd
}

func (a *App) parseCommand() *cobra.Command {
	var asJSON, asToken bool

	cmd := &cobra.Command{
		Use:   "parse <credential>",
		Short: "Decode a credential token or JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(nil)
			if err != nil {
				return err
			}
			codec := m.Codec()

			cred, err := codec.Parse(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				js, err := codec.EncodeJSON(cred)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, js)
			case asToken:
				token, err := codec.EncodeToken(cred)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, token)
			default:
				enc := codec.Encoding()
				fmt.Fprintf(out, "algorithm: %s\n", cred.Algorithm)
				fmt.Fprintf(out, "index:     %d\n", cred.Index)
				fmt.Fprintf(out, "salt:      %s\n", enc.Encode(cred.Salt))
				fmt.Fprintf(out, "hash:      %s\n", enc.Encode(cred.Hash))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON form")
	cmd.Flags().BoolVar(&asToken, "token", false, "print the token form")
	cmd.MarkFlagsMutuallyExclusive("json", "token")
	return cmd
}

func (a *App) validateCommand() *cobra.Command {
	def := ratchet.DefaultConfig()
	rc := ratchet.Config{
		MinIndex:     def.MinIndex,
		MaxIndex:     def.MaxIndex,
		SaltSize:     def.SaltSize,
		MinDecrement: def.MinDecrement,
	}

	cmd := &cobra.Command{
		Use:   "validate <input> <target>",
		Short: "Run the ratchet check of input against target",
		Long: `Check that input sits at least --min-decrement rounds before target on the
same chain, exactly as the server does at sign-in.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(func(c *ratchet.Config) {
				c.MinIndex = rc.MinIndex
				c.MaxIndex = rc.MaxIndex
				c.UpdateIndex = rc.MinIndex
				c.SaltSize = rc.SaltSize
				c.MinDecrement = rc.MinDecrement
			})
			if err != nil {
				return err
			}

			if err := m.Validate(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().IntVar(&rc.MinIndex, "min-index", rc.MinIndex, "exclusive lower index bound")
	cmd.Flags().IntVar(&rc.MaxIndex, "max-index", rc.MaxIndex, "inclusive upper index bound")
	cmd.Flags().IntVar(&rc.SaltSize, "salt-size", rc.SaltSize, "salt size in bytes")
	cmd.Flags().IntVar(&rc.MinDecrement, "min-decrement", rc.MinDecrement, "least index distance to the target")
	return cmd
}
