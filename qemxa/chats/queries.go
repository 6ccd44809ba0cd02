package chats

const (
	queryFindByKey = `
		SELECT vin, user_id, messages, COALESCE("serviceHistory", '[]'::jsonb)
		FROM chats
		WHERE vin = $1 AND user_id = $2
	`

	queryUpsertMessages = `
		INSERT INTO chats (vin, user_id, messages, "serviceHistory")
		VALUES ($1, $2, $3, '[]'::jsonb)
		ON CONFLICT (vin, user_id)
		DO UPDATE SET messages = EXCLUDED.messages
	`

	queryDeleteByVIN = `
		DELETE FROM chats
		WHERE vin = $1 AND user_id = $2
	`
)
