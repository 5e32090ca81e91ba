package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func fingerprintCmd() *cobra.Command {
	var identityName string
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print an identity's fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			li, err := parseIdentity(identityName)
			if err != nil {
				return err
			}
			fp, err := wire.Identity.FingerprintIdentity(li, passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&identityName, "identity", "primary", "identity to inspect (primary or secondary)")
	return cmd
}
