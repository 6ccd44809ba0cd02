package profiles

const (
	// the no-op update makes RETURNING yield existing rows too
	queryFindOrCreate = `
		INSERT INTO profiles (id, tier, "dailyUsage")
		VALUES ($1, 'free', $2)
		ON CONFLICT (id)
		DO UPDATE SET id = EXCLUDED.id
		RETURNING id, tier, "dailyUsage", COALESCE(stripe_customer_id, '')
	`

	queryUpdateDailyUsage = `
		UPDATE profiles
		SET "dailyUsage" = $1
		WHERE id = $2
	`

	queryUpdateTier = `
		UPDATE profiles
		SET tier = $1
		WHERE id = $2
	`
)
