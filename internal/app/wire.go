package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sealbox/internal/domain"
	"sealbox/internal/queue"
	identitysvc "sealbox/internal/services/identity"
	prekeysvc "sealbox/internal/services/prekey"
	"sealbox/internal/services/receive"
	sessionsvc "sealbox/internal/services/session"
	"sealbox/internal/store"
)

// Wire bundles the stores, services, and queue for the CLI.
type Wire struct {
	Log      *zap.Logger
	Stores   map[domain.LocalIdentity]*store.ProtocolFileStore
	Identity domain.IdentityService
	PreKeys  domain.PreKeyService
	Sessions domain.SessionService
	Queue    domain.DeliveryQueue

	cfg Config
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log := cfg.Logger
	if log == nil {
		var err error
		if log, err = zap.NewProduction(); err != nil {
			return nil, err
		}
	}

	// Per-identity file stores
	stores := make(map[domain.LocalIdentity]*store.ProtocolFileStore)
	for _, li := range []domain.LocalIdentity{domain.Primary, domain.Secondary} {
		if li == domain.Secondary && cfg.SecondaryAddress == "" {
			continue
		}
		ps, err := store.NewProtocolFileStore(cfg.Home, li)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", li, err)
		}
		stores[li] = ps
	}

	// Delivery queue: redis when configured, in-process otherwise.
	var dq domain.DeliveryQueue
	if cfg.RedisAddr != "" {
		dq = queue.NewRedis(goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr}))
	} else {
		dq = queue.NewMemory(64)
	}

	idStores := make(map[domain.LocalIdentity]domain.IdentityStore, len(stores))
	protoStores := make(map[domain.LocalIdentity]domain.ProtocolStore, len(stores))
	for li, ps := range stores {
		idStores[li] = ps
		protoStores[li] = ps
	}

	return &Wire{
		Log:      log,
		Stores:   stores,
		Identity: identitysvc.New(idStores),
		PreKeys:  prekeysvc.New(protoStores),
		Sessions: sessionsvc.New(protoStores),
		Queue:    dq,
		cfg:      cfg,
	}, nil
}

// Engine decrypts each configured identity's keys with the passphrase and
// builds the decryption engine over them.
func (w *Wire) Engine(passphrase string) (*receive.Engine, error) {
	identities := make(map[domain.LocalIdentity]receive.IdentityConfig, len(w.Stores))
	for li, ps := range w.Stores {
		keys, err := ps.LoadIdentity(passphrase)
		if err != nil {
			return nil, fmt.Errorf("load %s identity: %w", li, err)
		}
		addr := w.cfg.PrimaryAddress
		if li == domain.Secondary {
			addr = w.cfg.SecondaryAddress
		}
		identities[li] = receive.IdentityConfig{
			Address:  addr,
			DeviceID: w.cfg.DeviceID,
			Keys:     keys,
			Store:    ps,
		}
	}
	return receive.New(w.Log, w.cfg.TrustRoot, w.Queue, identities), nil
}
