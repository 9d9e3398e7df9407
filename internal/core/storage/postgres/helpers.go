package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

// marshalRecurrence serializes an event's recurrence pattern for the JSONB
// column. A non-recurring event produces nil (SQL NULL) rather than a JSON
// "null" string.
func marshalRecurrence(event *v1.Event) ([]byte, error) {
	if event.Recurrence == nil {
		return nil, nil
	}
	data, err := json.Marshal(event.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recurrence: %w", err)
	}
	return data, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event struct, unmarshalling the
// recurrence JSONB column when present. Compatible with both sql.Row
// (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var category, notes sql.NullString
	var recurrenceJSON []byte

	err := row.Scan(
		&evt.ID,
		&evt.OwnerID,
		&evt.Title,
		&category,
		&notes,
		&evt.StartTime,
		&evt.DurationMinutes,
		&evt.Completed,
		&recurrenceJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.Category = category.String
	evt.Notes = notes.String

	if len(recurrenceJSON) > 0 {
		if err := json.Unmarshal(recurrenceJSON, &evt.Recurrence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recurrence: %w", err)
		}
	}

	return &evt, nil
}

// collectEventRows drains a result set through scanEventRow.
func collectEventRows(rows *sql.Rows) ([]*v1.Event, error) {
	defer rows.Close()

	var events []*v1.Event
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
