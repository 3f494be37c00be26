package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

func TestSQLStore_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db)
	event, err := NewLeadEvent("lead-1", "tenant-1", EventLeadCreated, map[string]any{"source": "assessment"})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO lead_events").
		WithArgs(sqlmock.AnyArg(), "lead-1", "tenant-1", "lead_created", []byte(`{"source":"assessment"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Record(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_RecordNullTenant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db)
	event, err := NewLeadEvent("lead-2", "", EventLeadCreated, nil)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO lead_events").
		WithArgs(sqlmock.AnyArg(), "lead-2", nil, "lead_created", []byte("null"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Record(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db)
	mock.ExpectExec("INSERT INTO lead_events").WillReturnError(errors.New("relation does not exist"))

	err = store.Record(context.Background(), LeadEvent{LeadID: "lead-3", EventType: EventLeadCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events: insert lead event")
}

func TestNewLeadEvent_MarshalError(t *testing.T) {
	_, err := NewLeadEvent("lead-1", "", EventLeadCreated, map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Record(context.Background(), LeadEvent{LeadID: "lead-1", EventType: EventLeadCreated}))

	recorded := store.Events()
	require.Len(t, recorded, 1)
	assert.NotEmpty(t, recorded[0].ID)
	assert.False(t, recorded[0].CreatedAt.IsZero())
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	rec := NewLogRecorder(logging.NewWithOptions(logging.Options{Output: &buf}))
	require.NoError(t, rec.Record(context.Background(), LeadEvent{LeadID: "lead-9", EventType: EventLeadCreated, Payload: []byte(`{}`)}))
	assert.Contains(t, buf.String(), `"lead_id":"lead-9"`)
}
