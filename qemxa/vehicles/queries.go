package vehicles

const (
	queryFindByKey = `
		SELECT vin, user_id, brand, model, year, created_at
		FROM vehicles
		WHERE vin = $1 AND user_id = $2
	`

	queryListByUser = `
		SELECT vin, user_id, brand, model, year, created_at
		FROM vehicles
		WHERE user_id = $1
		ORDER BY created_at
	`

	// serializes vehicle creation per owner
	queryLockOwner = `
		SELECT tier
		FROM profiles
		WHERE id = $1
		FOR UPDATE
	`

	queryCountByUser = `
		SELECT COUNT(*)
		FROM vehicles
		WHERE user_id = $1
	`

	queryCreate = `
		INSERT INTO vehicles (vin, user_id, brand, model, year)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING vin, user_id, brand, model, year, created_at
	`
)
