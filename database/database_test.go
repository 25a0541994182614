package database

import "testing"

func TestOpenUnsupportedDialect(t *testing.T) {
	if _, err := Open("oracle", "", nil); err == nil {
		t.Error("Open() with an unknown dialect should fail")
	}
}

func TestOpenSqlite(t *testing.T) {
	db, err := Open("sqlite", "file:open?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if name := db.Dialector.Name(); name != "sqlite" {
		t.Errorf("dialector = %q, want sqlite", name)
	}
}
