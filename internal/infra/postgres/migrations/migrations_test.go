package migrations

import "testing"

// The migration name is derived from the registering file's name, which bun
// requires to match a numbered prefix; a bad name panics at package init.
func TestMigrationsRegistered(t *testing.T) {
	sorted := Migrations.Sorted()
	if len(sorted) != 1 {
		t.Fatalf("expected 1 registered migration, got %d", len(sorted))
	}
	m := sorted[0]
	if m.Name != "2026090101" || m.Comment != "create_quizzes" {
		t.Fatalf("unexpected migration identity: %q %q", m.Name, m.Comment)
	}
	if m.Up == nil || m.Down == nil {
		t.Fatalf("migration must register both directions")
	}
}
