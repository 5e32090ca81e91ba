package transport

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sealbox/internal/domain"
)

// WebSocketFeed streams envelopes from a message relay over a websocket
// connection. Each text frame carries one JSON-encoded envelope.
type WebSocketFeed struct {
	log  *zap.Logger
	conn *websocket.Conn
}

var _ domain.EnvelopeFeed = (*WebSocketFeed)(nil)

// DialWebSocket connects to the relay at url and returns a feed over the
// connection.
func DialWebSocket(ctx context.Context, log *zap.Logger, url string) (*WebSocketFeed, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}
	log.Info("connected to relay", zap.String("url", url))
	return &WebSocketFeed{log: log, conn: conn}, nil
}

// Next blocks until the next envelope arrives. Frames that do not parse as an
// envelope are logged and skipped rather than tearing the feed down.
func (f *WebSocketFeed) Next(ctx context.Context) (domain.Envelope, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := f.conn.SetReadDeadline(deadline); err != nil {
			return domain.Envelope{}, err
		}
	}
	for {
		var env domain.Envelope
		if err := f.conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return domain.Envelope{}, fmt.Errorf("relay closed connection: %w", err)
			}
			// ReadJSON reports decode failures without consuming the
			// connection; only bail on transport-level errors.
			if _, ok := err.(*websocket.CloseError); ok || websocket.IsUnexpectedCloseError(err) {
				return domain.Envelope{}, err
			}
			f.log.Warn("skipping unparseable frame", zap.Error(err))
			continue
		}
		return env, nil
	}
}

// Close tears the connection down.
func (f *WebSocketFeed) Close() error {
	return f.conn.Close()
}
