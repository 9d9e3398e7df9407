package postgres

// SQL queries for base-event storage. Only base events are ever written;
// synthesized recurring instances are rejected before any SQL runs.

const (
	// querySaveEvent inserts a base event keyed by (owner_id, id).
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveEvent = `
		INSERT INTO events (
			id, owner_id, title, category, notes,
			start_time, duration_minutes, completed, recurrence
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id, id) DO NOTHING
		RETURNING id
	`

	queryGetEvent = `
		SELECT
			id, owner_id, title, category, notes,
			start_time, duration_minutes, completed, recurrence
		FROM events
		WHERE owner_id = $1 AND id = $2
	`

	queryUpdateEvent = `
		UPDATE events
		SET title = $3, category = $4, notes = $5,
		    start_time = $6, duration_minutes = $7, completed = $8,
		    recurrence = $9, updated_at = now()
		WHERE owner_id = $1 AND id = $2
	`

	queryDeleteEvent = `
		DELETE FROM events
		WHERE owner_id = $1 AND id = $2
	`

	querySetCompleted = `
		UPDATE events
		SET completed = $3, updated_at = now()
		WHERE owner_id = $1 AND id = $2
	`

	// queryListEvents fetches every base event of an owner. Backup and
	// export read through this; by construction it can only ever see base
	// events, which is the persistence contract.
	queryListEvents = `
		SELECT
			id, owner_id, title, category, notes,
			start_time, duration_minutes, completed, recurrence
		FROM events
		WHERE owner_id = $1
		ORDER BY start_time ASC, id ASC
	`

	// queryListRegularInRange fetches non-recurring events starting within
	// [start, end] for the day/range views.
	queryListRegularInRange = `
		SELECT
			id, owner_id, title, category, notes,
			start_time, duration_minutes, completed, recurrence
		FROM events
		WHERE owner_id = $1
		  AND recurrence IS NULL
		  AND start_time >= $2
		  AND start_time <= $3
		ORDER BY start_time ASC, id ASC
	`

	// queryListRecurring fetches recurring bases that could occur at or
	// before the horizon. Pattern end dates live inside the JSONB document
	// and are enforced by the occurrence engine, not by SQL.
	queryListRecurring = `
		SELECT
			id, owner_id, title, category, notes,
			start_time, duration_minutes, completed, recurrence
		FROM events
		WHERE owner_id = $1
		  AND recurrence IS NOT NULL
		  AND start_time <= $2
		ORDER BY start_time ASC, id ASC
	`
)
