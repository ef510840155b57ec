package reports

const (
	reportColumns = `id, user_id, url, status, analysis, insights, error, created_at, updated_at`

	queryCreate = `
		INSERT INTO analysis_reports (user_id, url, status)
		VALUES ($1, $2, 'pending')
		RETURNING ` + reportColumns

	queryGet = `
		SELECT ` + reportColumns + `
		FROM analysis_reports
		WHERE id = $1
	`

	queryListByUser = `
		SELECT ` + reportColumns + `
		FROM analysis_reports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	queryCountByUser = `
		SELECT COUNT(*)
		FROM analysis_reports
		WHERE user_id = $1
	`

	queryListStale = `
		SELECT ` + reportColumns + `
		FROM analysis_reports
		WHERE status IN ('pending', 'running') AND updated_at < $1
		ORDER BY updated_at
	`

	queryMarkRunning = `
		UPDATE analysis_reports
		SET status = 'running', updated_at = NOW()
		WHERE id = $1
	`

	queryComplete = `
		UPDATE analysis_reports
		SET status = 'completed',
		    analysis = $2,
		    insights = $3,
		    error = '',
		    updated_at = NOW()
		WHERE id = $1
	`

	queryFail = `
		UPDATE analysis_reports
		SET status = 'failed', error = $2, updated_at = NOW()
		WHERE id = $1
	`

	// applied at startup when the table is missing
	querySchema = `
		CREATE TABLE IF NOT EXISTS analysis_reports (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT,
			url TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			analysis JSONB,
			insights JSONB,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS analysis_reports_user_created_idx
			ON analysis_reports (user_id, created_at DESC);
	`
)
