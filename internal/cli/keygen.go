package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/signing"
)

var keygenForce bool

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key pair",
	Long: `Generates a new secp256k1 signing key and writes it to the configured
key file (--key, or ~/.consensource/keys/csrc.priv). The public key is
printed so it can be registered as an agent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !keygenForce {
			if _, err := os.Stat(cfg.KeyFile); err == nil {
				return fmt.Errorf("key file %s already exists (use --force to overwrite)", cfg.KeyFile)
			}
		}

		signer, err := signing.NewSigner()
		if err != nil {
			return err
		}
		if err := signer.WriteKeyFile(cfg.KeyFile); err != nil {
			return err
		}

		cmd.Printf("wrote %s\n", cfg.KeyFile)
		cmd.Printf("public key: %s\n", signer.PublicKeyHex())
		return nil
	},
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "overwrite an existing key file")
	rootCmd.AddCommand(keygenCmd)
}
