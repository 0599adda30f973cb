package application

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEventMetadataFromContext(t *testing.T) {
	userID := uuid.New()

	t.Run("uses correlation id from context", func(t *testing.T) {
		correlationID := uuid.New()
		ctx := observability.WithCorrelationID(context.Background(), correlationID.String())

		md := EventMetadataFromContext(ctx, userID)

		assert.Equal(t, correlationID, md.CorrelationID)
		assert.Equal(t, userID, md.UserID)
		assert.NotEqual(t, uuid.Nil, md.CausationID)
	})

	t.Run("generates correlation id when absent or malformed", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "batch-42")

		a := EventMetadataFromContext(context.Background(), userID)
		b := EventMetadataFromContext(ctx, userID)

		assert.NotEqual(t, uuid.Nil, a.CorrelationID)
		assert.NotEqual(t, uuid.Nil, b.CorrelationID)
		assert.NotEqual(t, a.CorrelationID, b.CorrelationID)
	})
}
