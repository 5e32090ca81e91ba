package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sealbox/internal/domain"
	"sealbox/internal/services/receive"
)

// recv: decrypt envelopes from a JSON file (or stdin) and print plaintexts.
func recvCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Decrypt envelopes from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			engine, err := wire.Engine(passphrase)
			if err != nil {
				return err
			}

			in := os.Stdin
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			dec := json.NewDecoder(in)
			for {
				var env domain.Envelope
				if err := dec.Decode(&env); err == io.EOF {
					return nil
				} else if err != nil {
					return fmt.Errorf("parse envelope: %w", err)
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
	cmd.Flags().StringVar(&file, "file", "", "file of JSON envelopes (default stdin)")
	return cmd
}
