package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sealbox/internal/services/receive"
	"sealbox/internal/transport"
)

// listen: stream envelopes from the relay and decrypt them as they arrive.
func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Stream envelopes from the relay and decrypt them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if relayURL == "" {
				return fmt.Errorf("no relay configured. use --relay")
			}
			engine, err := wire.Engine(passphrase)
			if err != nil {
				return err
			}

			feed, err := transport.DialWebSocket(cmd.Context(), wire.Log, relayURL)
			if err != nil {
				return err
			}
			defer feed.Close()

			for {
				env, err := feed.Next(cmd.Context())
				if err != nil {
					return err
				}
				res, err := engine.Decrypt(cmd.Context(), &env)
				if err != nil {
					var failure *receive.Error
					if errors.As(err, &failure) && failure.Recoverable() {
						fmt.Fprintf(os.Stderr, "undecryptable (%s); resend requested\n", failure.Kind)
						continue
					}
					fmt.Fprintf(os.Stderr, "undecryptable: %v\n", err)
					continue
				}
				fmt.Printf("[%s] %s\n", res.Envelope.Source, res.Plaintext)
			}
		},
	}
}
