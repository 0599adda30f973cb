package recommender

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request is the recommender call payload.
type Request struct {
	BookingID   uuid.UUID
	UserID      uuid.UUID
	RegionID    string
	ServiceID   string
	Start       time.Time
	ArrivalType domain.ArrivalType
}

// Response is the recommender answer. A zero Start means no proposal.
type Response struct {
	Start       time.Time
	ProviderIDs []uuid.UUID
}

func requestFromBooking(b *domain.Booking, arrival domain.ArrivalType) Request {
	return Request{
		BookingID:   b.ID,
		UserID:      b.UserID,
		RegionID:    b.RegionID,
		ServiceID:   b.ServiceID,
		Start:       b.Start,
		ArrivalType: arrival,
	}
}

func encodeRequest(r Request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"booking_id":   r.BookingID.String(),
		"user_id":      r.UserID.String(),
		"region_id":    r.RegionID,
		"service_id":   r.ServiceID,
		"start":        r.Start.UTC().Format(time.RFC3339),
		"arrival_type": string(r.ArrivalType),
	})
}

func decodeRequest(s *structpb.Struct) (Request, error) {
	fields := s.GetFields()
	var r Request
	var err error

	if r.BookingID, err = uuid.Parse(fields["booking_id"].GetStringValue()); err != nil {
		return Request{}, fmt.Errorf("booking_id: %w", err)
	}
	if id := fields["user_id"].GetStringValue(); id != "" {
		if r.UserID, err = uuid.Parse(id); err != nil {
			return Request{}, fmt.Errorf("user_id: %w", err)
		}
	}
	if r.Start, err = time.Parse(time.RFC3339, fields["start"].GetStringValue()); err != nil {
		return Request{}, fmt.Errorf("start: %w", err)
	}
	r.RegionID = fields["region_id"].GetStringValue()
	r.ServiceID = fields["service_id"].GetStringValue()
	r.ArrivalType = domain.ArrivalType(fields["arrival_type"].GetStringValue())
	return r, nil
}

func encodeResponse(r Response) (*structpb.Struct, error) {
	providers := make([]any, 0, len(r.ProviderIDs))
	for _, id := range r.ProviderIDs {
		providers = append(providers, id.String())
	}
	fields := map[string]any{"provider_ids": providers}
	if !r.Start.IsZero() {
		fields["start"] = r.Start.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(fields)
}

func decodeResponse(s *structpb.Struct) (Response, error) {
	fields := s.GetFields()
	var r Response

	if raw := fields["start"].GetStringValue(); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Response{}, fmt.Errorf("start: %w", err)
		}
		r.Start = start
	}
	for _, v := range fields["provider_ids"].GetListValue().GetValues() {
		id, err := uuid.Parse(v.GetStringValue())
		if err != nil {
			return Response{}, fmt.Errorf("provider_ids: %w", err)
		}
		r.ProviderIDs = append(r.ProviderIDs, id)
	}
	return r, nil
}
