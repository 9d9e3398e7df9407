package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:                db,
		stmtSaveEvent:     mustPrepareStmt(t, db, mock, querySaveEvent),
		stmtGetEvent:      mustPrepareStmt(t, db, mock, queryGetEvent),
		stmtUpdateEvent:   mustPrepareStmt(t, db, mock, queryUpdateEvent),
		stmtDeleteEvent:   mustPrepareStmt(t, db, mock, queryDeleteEvent),
		stmtSetCompleted:  mustPrepareStmt(t, db, mock, querySetCompleted),
		stmtListEvents:    mustPrepareStmt(t, db, mock, queryListEvents),
		stmtListRegular:   mustPrepareStmt(t, db, mock, queryListRegularInRange),
		stmtListRecurring: mustPrepareStmt(t, db, mock, queryListRecurring),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func eventRowColumns() []string {
	return []string{
		"id",
		"owner_id",
		"title",
		"category",
		"notes",
		"start_time",
		"duration_minutes",
		"completed",
		"recurrence",
	}
}

func TestAdapter_SaveEvent(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		event      *v1.Event
		mockResult func(mock sqlmock.Sqlmock, event *v1.Event)
		assertions func(t *testing.T, err error)
	}{
		{
			name: "success",
			event: &v1.Event{
				ID:              "evt-1",
				OwnerID:         "owner-1",
				Title:           "Dentist",
				Category:        "health",
				StartTime:       start,
				DurationMinutes: 45,
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveEvent)).
					WithArgs(
						event.ID,
						event.OwnerID,
						event.Title,
						nullable(event.Category),
						nullable(event.Notes),
						event.StartTime,
						event.DurationMinutes,
						event.Completed,
						sqlmock.AnyArg(),
					).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-1"))
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "recurring event stores pattern json",
			event: &v1.Event{
				ID:              "evt-2",
				OwnerID:         "owner-1",
				Title:           "Morning meds",
				Category:        "medication",
				StartTime:       start,
				DurationMinutes: 10,
				Recurrence:      v1.Daily(1),
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveEvent)).
					WithArgs(
						event.ID,
						event.OwnerID,
						event.Title,
						nullable(event.Category),
						nullable(event.Notes),
						event.StartTime,
						event.DurationMinutes,
						event.Completed,
						sqlmock.AnyArg(),
					).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-2"))
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "duplicate maps to ErrDuplicate",
			event: &v1.Event{
				ID:              "evt-dup",
				OwnerID:         "owner-1",
				Title:           "Dentist",
				StartTime:       start,
				DurationMinutes: 45,
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveEvent)).
					WithArgs(
						event.ID,
						event.OwnerID,
						event.Title,
						nullable(event.Category),
						nullable(event.Notes),
						event.StartTime,
						event.DurationMinutes,
						event.Completed,
						sqlmock.AnyArg(),
					).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorIs(t, err, storage.ErrDuplicate)
			},
		},
		{
			name: "instance rejected before any sql",
			event: &v1.Event{
				ID:              "evt-1_2024-03-05",
				OwnerID:         "owner-1",
				Title:           "Morning meds",
				StartTime:       start,
				DurationMinutes: 10,
				IsInstance:      true,
				ParentEventID:   "evt-1",
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorIs(t, err, storage.ErrEphemeral)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			if tc.mockResult != nil {
				tc.mockResult(mock, tc.event)
			}

			err := adapter.SaveEvent(context.Background(), tc.event)
			tc.assertions(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_GetEvent(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	t.Run("found with recurrence", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(queryGetEvent)).
			WithArgs("owner-1", "evt-1").
			WillReturnRows(sqlmock.NewRows(eventRowColumns()).
				AddRow(
					"evt-1",
					"owner-1",
					"Morning meds",
					"medication",
					nil,
					start,
					10,
					false,
					[]byte(`{"frequency":"daily","interval":2}`),
				))

		event, err := adapter.GetEvent(context.Background(), "owner-1", "evt-1")
		require.NoError(t, err)
		require.Equal(t, "Morning meds", event.Title)
		require.Equal(t, "medication", event.Category)
		require.Empty(t, event.Notes)
		require.True(t, event.IsRecurring())
		require.Equal(t, v1.FrequencyDaily, event.Recurrence.Frequency)
		require.Equal(t, 2, event.Recurrence.Interval)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(queryGetEvent)).
			WithArgs("owner-1", "nope").
			WillReturnError(sql.ErrNoRows)

		_, err := adapter.GetEvent(context.Background(), "owner-1", "nope")
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_UpdateEvent(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	event := &v1.Event{
		ID:              "evt-1",
		OwnerID:         "owner-1",
		Title:           "Dentist (moved)",
		StartTime:       start,
		DurationMinutes: 30,
	}

	t.Run("success", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(queryUpdateEvent)).
			WithArgs(
				event.OwnerID,
				event.ID,
				event.Title,
				nullable(event.Category),
				nullable(event.Notes),
				event.StartTime,
				event.DurationMinutes,
				event.Completed,
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, adapter.UpdateEvent(context.Background(), event))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows maps to ErrNotFound", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(queryUpdateEvent)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, adapter.UpdateEvent(context.Background(), event), storage.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("instance rejected", func(t *testing.T) {
		adapter, _, db := newMockAdapter(t)
		defer db.Close()

		inst := *event
		inst.IsInstance = true
		require.ErrorIs(t, adapter.UpdateEvent(context.Background(), &inst), storage.ErrEphemeral)
	})
}

func TestAdapter_DeleteEvent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(queryDeleteEvent)).
			WithArgs("owner-1", "evt-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, adapter.DeleteEvent(context.Background(), "owner-1", "evt-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(queryDeleteEvent)).
			WithArgs("owner-1", "nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, adapter.DeleteEvent(context.Background(), "owner-1", "nope"), storage.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_ListRegularEventsInRange(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryListRegularInRange)).
		WithArgs("owner-1", start, end).
		WillReturnRows(sqlmock.NewRows(eventRowColumns()).
			AddRow("evt-1", "owner-1", "Dentist", "health", nil, start.Add(10*time.Hour), 45, false, nil).
			AddRow("evt-2", "owner-1", "Lunch", nil, nil, start.Add(12*time.Hour), 60, true, nil))

	events, err := adapter.ListRegularEventsInRange(context.Background(), "owner-1", start, end)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "evt-1", events[0].ID)
	require.False(t, events[0].IsRecurring())
	require.True(t, events[1].Completed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListRecurringEvents(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	until := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryListRecurring)).
		WithArgs("owner-1", until).
		WillReturnRows(sqlmock.NewRows(eventRowColumns()).
			AddRow("evt-meds", "owner-1", "Morning meds", "medication", nil, base, 10, false,
				[]byte(`{"frequency":"daily","interval":1,"end_date":"2024-06-30T00:00:00Z"}`)))

	events, err := adapter.ListRecurringEvents(context.Background(), "owner-1", until)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].IsRecurring())
	require.NotNil(t, events[0].Recurrence.EndDate)
	require.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), events[0].Recurrence.EndDate.UTC())
	require.NoError(t, mock.ExpectationsWereMet())
}
