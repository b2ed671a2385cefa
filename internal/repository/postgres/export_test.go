package postgres

import "context"

// Truncate empties every table. Only the integration suite uses it.
func (db *DB) Truncate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `TRUNCATE user_pokemon, users, pokemon_model RESTART IDENTITY CASCADE`)
	return err
}
