package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trip-service/internal/mocks"
)

func TestAuditEmitterEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.trip", "trip-service", "test", logrus.New())

	userID := int64(7)
	publisher.On("Publish", mock.Anything, "audit.trip", mock.MatchedBy(func(e AuditEnvelope) bool {
		return e.SchemaVersion == 1 &&
			e.EventType == "audit_log" &&
			e.Service == "trip-service" &&
			e.Environment == "test" &&
			e.RequestID == "req-1" &&
			e.UserID != nil && *e.UserID == 7 &&
			e.Payload.Level == "INFO" &&
			e.Payload.Text == "Group created" &&
			e.OccurredAt != ""
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "Group created", "req-1", &userID)

	publisher.AssertExpectations(t)
}

func TestAuditEmitterPublishFailureIsSwallowed(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.trip", "trip-service", "test", logrus.New())

	publisher.On("Publish", mock.Anything, "audit.trip", mock.Anything).
		Return(errors.New("broker down")).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "ERROR", "login failed", "req-2", nil)
	})
	publisher.AssertExpectations(t)
}

func TestAuditEmitterNilSafe(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "noop", "req-3", nil)
	})
}
