package partners

const (
	queryListByUser = `
		SELECT id, user_id, name, type, tier, description,
		       COALESCE(address, ''), COALESCE(phone, ''),
		       COALESCE(products, '[]'::jsonb), COALESCE(services, '[]'::jsonb)
		FROM partner_profiles
		WHERE user_id = $1
	`

	queryFindTier = `
		SELECT tier
		FROM partner_profiles
		WHERE id = $1 AND user_id = $2
	`

	queryUpsert = `
		INSERT INTO partner_profiles (id, user_id, name, type, tier, description, address, phone, products, services)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			products = EXCLUDED.products,
			services = EXCLUDED.services
		WHERE partner_profiles.user_id = EXCLUDED.user_id
	`
)
