package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sealbox/internal/domain"
	"sealbox/internal/transport"
)

// newRelay starts a test server that upgrades the connection and sends each
// frame from frames in order.
func newRelay(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestNextDeliversEnvelope(t *testing.T) {
	srv := newRelay(t, []string{
		`{"type":1,"source":"bob","server_timestamp":123,"content":"aGk="}`,
	})

	feed, err := transport.DialWebSocket(context.Background(), zap.NewNop(), wsURL(srv))
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	defer feed.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env, err := feed.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if env.Type != domain.EnvelopeCiphertext || env.Source != "bob" || env.ServerTimestamp != 123 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if string(env.Content) != "hi" {
		t.Fatalf("content = %q", env.Content)
	}
}

func TestNextSkipsUnparseableFrames(t *testing.T) {
	srv := newRelay(t, []string{
		`this is not json`,
		`{"type":2,"source":"bob","server_timestamp":7,"content":"eA=="}`,
	})

	feed, err := transport.DialWebSocket(context.Background(), zap.NewNop(), wsURL(srv))
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	defer feed.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env, err := feed.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if env.Type != domain.EnvelopePreKeyBundle {
		t.Fatalf("got %s, want prekey-bundle", env.Type)
	}
}
