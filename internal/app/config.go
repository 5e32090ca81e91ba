package app

import (
	"go.uber.org/zap"

	"sealbox/internal/domain"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home             string               // config directory, e.g. $HOME/.sealbox
	PrimaryAddress   domain.Address       // address registered for the primary identity
	SecondaryAddress domain.Address       // address for the secondary identity; empty disables it
	DeviceID         domain.DeviceID      // this device's identifier
	TrustRoot        domain.Ed25519Public // server certificate signing key
	RedisAddr        string               // optional; selects the redis delivery queue
	RelayURL         string               // optional websocket relay, e.g. ws://127.0.0.1:8080/v1/envelopes
	Logger           *zap.Logger          // optional; defaults to a production logger
}
