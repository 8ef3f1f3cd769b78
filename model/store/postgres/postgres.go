package postgres

// Postgres - Implementation of model.Model on the postgres datastore.
type Postgres struct {
}
