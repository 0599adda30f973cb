package application

import (
	"context"

	"github.com/felixgeelhaar/autoresolve/internal/shared/domain"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/google/uuid"
)

// EventMetadataFromContext builds event metadata for userID. The correlation
// id comes from the context when it holds a valid UUID, so every event raised
// while resolving one booking shares it.
func EventMetadataFromContext(ctx context.Context, userID uuid.UUID) domain.EventMetadata {
	correlationID, err := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	if err != nil {
		correlationID = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
		UserID:        userID,
	}
}
