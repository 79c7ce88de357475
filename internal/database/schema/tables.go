// Package schema defines the database schema.
//
// Tables are created with IF NOT EXISTS on startup; there is no migration
// history yet.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id UUID PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		content TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_templates_user_id ON templates(user_id, updated_at DESC)`,
}

// TableNames lists the tables in creation order
var TableNames = []string{
	"templates",
}
