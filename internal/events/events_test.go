package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestEvent(typ models.RosterEventType) models.RosterEvent {
	return models.RosterEvent{
		ID:         "6f1c2a4e-0000-4000-8000-000000000001",
		Type:       typ,
		Activity:   "Chess Club",
		Email:      "newstudent@mergington.edu",
		OccurredAt: time.Date(2025, 9, 5, 15, 30, 0, 0, time.UTC),
	}
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type stubSink struct {
	name     string
	err      error
	received []models.RosterEvent
	deadline bool
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Publish(ctx context.Context, event models.RosterEvent) error {
	_, s.deadline = ctx.Deadline()
	s.received = append(s.received, event)
	return s.err
}

// ==========================
// Fanout
// ==========================

func TestFanout_DeliversToEverySink(t *testing.T) {
	a := &stubSink{name: "a"}
	b := &stubSink{name: "b"}
	f := NewFanout(time.Second, logger.NewTestLogger(t), a, b)

	err := f.Publish(context.Background(), createTestEvent(models.RosterEventSignedUp))

	assert.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Len(t, a.received, 1)
	assert.Len(t, b.received, 1)
	assert.True(t, a.deadline, "sink should run under a timeout")
}

func TestFanout_FailingSinkDoesNotBlockOthers(t *testing.T) {
	bad := &stubSink{name: "bad", err: errors.New("unreachable")}
	good := &stubSink{name: "good"}
	f := NewFanout(time.Second, logger.NewTestLogger(t), bad, good)

	err := f.Publish(context.Background(), createTestEvent(models.RosterEventSignedUp))

	require.Error(t, err)
	assert.Len(t, good.received, 1)
	stdErr := apperrors.As(err)
	assert.Equal(t, apperrors.ErrCodeSinkDeliveryFailed, stdErr.Code)
	assert.Equal(t, "bad", stdErr.Metadata["sink"])
}

func TestFanout_NoSinks(t *testing.T) {
	f := NewFanout(0, logger.NewNoOpLogger())
	assert.NoError(t, f.Publish(context.Background(), createTestEvent(models.RosterEventSignedUp)))
}

// ==========================
// Postgres audit sink
// ==========================

func TestAuditSink_Publish(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := createTestEvent(models.RosterEventSignedUp)
	mock.ExpectExec(`INSERT INTO roster_audit`).
		WithArgs(event.ID, "signed_up", "Chess Club", "newstudent@mergington.edu", event.OccurredAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sink, err := NewAuditSink(db, "roster_audit")
	require.NoError(t, err)

	assert.NoError(t, sink.Publish(context.Background(), event))
	assert.Equal(t, AuditSinkName, sink.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditSink_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO roster_audit`).
		WillReturnError(errors.New("connection reset"))

	sink, err := NewAuditSink(db, "roster_audit")
	require.NoError(t, err)

	err = sink.Publish(context.Background(), createTestEvent(models.RosterEventUnregistered))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit insert failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewAuditSink_RejectsUnsafeTableName(t *testing.T) {
	_, err := NewAuditSink(nil, "roster_audit; DROP TABLE students")
	assert.Error(t, err)
}

// ==========================
// Redis publisher
// ==========================

func TestRedisPublisher_DeliversToSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "activities.roster")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := createTestEvent(models.RosterEventSignedUp)
	require.NoError(t, NewRedisPublisher(client, "activities.roster").Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got models.RosterEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, event.Type, got.Type)
		assert.True(t, event.OccurredAt.Equal(got.OccurredAt))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisher_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()

	event := createTestEvent(models.RosterEventSignedUp)
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	mock.ExpectPublish("activities.roster", payload).SetErr(errors.New("READONLY"))

	err = NewRedisPublisher(client, "activities.roster").Publish(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis publish failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// AWS sinks
// ==========================

func TestSNSPublisher_Publish(t *testing.T) {
	var captured *sns.PublishInput
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}

	p := NewSNSPublisher(mockSNS, "arn:aws:sns:us-east-1:123456789012:roster")
	require.NoError(t, p.Publish(context.Background(), createTestEvent(models.RosterEventUnregistered)))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:roster", *captured.TopicArn)
	assert.Equal(t, "unregistered", *captured.MessageAttributes["eventType"].StringValue)

	var got models.RosterEvent
	require.NoError(t, json.Unmarshal([]byte(*captured.Message), &got))
	assert.Equal(t, "Chess Club", got.Activity)
}

func TestSNSPublisher_Error(t *testing.T) {
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	err := NewSNSPublisher(mockSNS, "arn").Publish(context.Background(), createTestEvent(models.RosterEventSignedUp))
	assert.ErrorContains(t, err, "sns publish failed")
}

func TestEmailNotifier_Publish(t *testing.T) {
	tests := []struct {
		name        string
		eventType   models.RosterEventType
		wantSubject string
	}{
		{"signup", models.RosterEventSignedUp, "You are signed up for Chess Club"},
		{"unregister", models.RosterEventUnregistered, "You have left Chess Club"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSES := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					assert.Equal(t, "activities@mergington.edu", *params.Source)
					assert.Equal(t, []string{"newstudent@mergington.edu"}, params.Destination.ToAddresses)
					assert.Equal(t, tt.wantSubject, *params.Message.Subject.Data)
					assert.Contains(t, *params.Message.Body.Text.Data, "newstudent@mergington.edu")
					return &ses.SendEmailOutput{}, nil
				},
			}
			n := NewEmailNotifier(mockSES, "activities@mergington.edu")
			assert.NoError(t, n.Publish(context.Background(), createTestEvent(tt.eventType)))
		})
	}
}

func TestEmailNotifier_Error(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected")
		},
	}
	err := NewEmailNotifier(mockSES, "activities@mergington.edu").
		Publish(context.Background(), createTestEvent(models.RosterEventSignedUp))
	assert.ErrorContains(t, err, "ses send failed")
}
