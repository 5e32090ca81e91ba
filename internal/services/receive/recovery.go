package receive

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sealbox/internal/domain"
)

// requestResend builds a recovery message for a key-material failure and
// hands it to the delivery queue. It runs after the identity's exclusive
// section has been released: the session lookup here is read-only, and the
// enqueue must never hold the session lock across queue I/O.
//
// The enqueue is best-effort relative to the decrypt outcome; the caller
// still sees the original failure regardless of what happens here.
func (e *Engine) requestResend(
	ctx context.Context,
	st *identityState,
	env *domain.Envelope,
	failure *Error,
) {
	if env == nil || env.Source == "" {
		// No sender to address; nothing to recover.
		return
	}

	msg := domain.RecoveryMessage{
		ID:          uuid.NewString(),
		Destination: env.Source,
		DeviceID:    env.SourceDevice,
		Timestamp:   env.ServerTimestamp,
	}
	if sess, ok, err := st.Store.LoadSession(env.Source); err == nil && ok {
		key := sess.State.DiffieHellmanPublic
		msg.CurrentRatchetKey = &key
	}

	if err := e.queue.Enqueue(ctx, msg); err != nil {
		e.log.Warn("enqueue recovery message",
			zap.String("peer", env.Source.String()),
			zap.Error(err))
		return
	}
	e.log.Info("requested resend from sender",
		zap.String("peer", env.Source.String()),
		zap.String("reason", failure.Kind.String()),
		zap.Int64("timestamp", msg.Timestamp))
}
