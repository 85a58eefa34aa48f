package models

// All lists every model, in dependency order, for AutoMigrate in tests and SQLite dev mode.
func All() []any {
	return []any{&Company{}, &Product{}, &Order{}, &OrderLine{}, &OutboxEvent{}}
}
