package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sealbox/internal/domain"
)

// prekeys: generate pre-keys and print the publishable bundle.
func prekeysCmd() *cobra.Command {
	var (
		identityName string
		count        int
	)
	cmd := &cobra.Command{
		Use:   "prekeys",
		Short: "Generate pre-keys and print the publishable bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			li, err := parseIdentity(identityName)
			if err != nil {
				return err
			}
			if _, _, err := wire.PreKeys.GenerateAndStorePreKeys(li, passphrase, count); err != nil {
				return err
			}

			addr := domain.Address(primaryAddr)
			if li == domain.Secondary {
				addr = domain.Address(secondaryAddr)
			}
			bundle, err := wire.PreKeys.LoadPreKeyBundle(li, passphrase, addr)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		},
	}
	cmd.Flags().StringVar(&identityName, "identity", "primary", "identity to generate for (primary or secondary)")
	cmd.Flags().IntVar(&count, "count", 10, "number of one-time pre-keys")
	return cmd
}
