package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealbox/internal/domain"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			for li := range wire.Stores {
				_, fp, err := wire.Identity.GenerateIdentity(li, passphrase)
				if err != nil {
					return err
				}
				fmt.Printf("%s identity created.\nFingerprint: %s\n", li, fp)
			}
			if _, ok := wire.Stores[domain.Secondary]; !ok {
				fmt.Println("No secondary address configured; secondary identity skipped.")
			}
			return nil
		},
	}
}
