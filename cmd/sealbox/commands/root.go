package commands

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sealbox/internal/app"
	"sealbox/internal/domain"
)

var (
	home       string
	passphrase string
	wire       *app.Wire

	primaryAddr   string
	secondaryAddr string
	deviceID      uint32
	trustRootHex  string
	redisAddr     string
	relayURL      string
	verbose       bool
)

func Execute() error {
	root := &cobra.Command{
		Use:   "sealbox",
		Short: "Envelope decryption and session recovery for an E2EE messaging account",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".sealbox")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var trustRoot domain.Ed25519Public
			if trustRootHex != "" {
				raw, err := hex.DecodeString(trustRootHex)
				if err != nil || len(raw) != 32 {
					return fmt.Errorf("--trust-root must be 32 hex-encoded bytes")
				}
				copy(trustRoot[:], raw)
			}

			log := zap.NewNop()
			if verbose {
				var err error
				if log, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}

			var err error
			wire, err = app.NewWire(app.Config{
				Home:             home,
				PrimaryAddress:   domain.Address(primaryAddr),
				SecondaryAddress: domain.Address(secondaryAddr),
				DeviceID:         domain.DeviceID(deviceID),
				TrustRoot:        trustRoot,
				RedisAddr:        redisAddr,
				RelayURL:         relayURL,
				Logger:           log,
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.sealbox)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&primaryAddr, "primary", "", "primary identity address")
	root.PersistentFlags().StringVar(&secondaryAddr, "secondary", "", "secondary identity address (optional)")
	root.PersistentFlags().Uint32Var(&deviceID, "device", 1, "device id")
	root.PersistentFlags().StringVar(&trustRootHex, "trust-root", "", "server trust root public key (hex)")
	root.PersistentFlags().StringVar(&redisAddr, "redis", "", "redis address for the delivery queue (optional)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay websocket URL (e.g. ws://127.0.0.1:8080/v1/envelopes)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(initCmd(), fingerprintCmd(), prekeysCmd(), recvCmd(), listenCmd())
	return root.Execute()
}

// parseIdentity maps the --identity flag value onto a local identity.
func parseIdentity(s string) (domain.LocalIdentity, error) {
	switch s {
	case "", "primary":
		return domain.Primary, nil
	case "secondary":
		return domain.Secondary, nil
	default:
		return 0, fmt.Errorf("unknown identity %q (want primary or secondary)", s)
	}
}
