package shared

import "testing"

func TestConfigureDatabase(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	t.Run("applies explicit pool settings", func(t *testing.T) {
		ConfigureDatabase(db, 3, 2)
		if got := db.Stats().MaxOpenConnections; got != 3 {
			t.Errorf("expected 3 max open connections, got %d", got)
		}
	})

	t.Run("zero values fall back to the defaults", func(t *testing.T) {
		ConfigureDatabase(db, 0, 0)
		if got := db.Stats().MaxOpenConnections; got != defaultMaxOpenConns {
			t.Errorf("expected %d max open connections, got %d", defaultMaxOpenConns, got)
		}
	})
}
