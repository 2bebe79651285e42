package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDriver(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	driver, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, ok, err := driver.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("expected missing key on fresh file, got ok=%v err=%v", ok, err)
	}

	if err := driver.Put(ctx, "token", "abc"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	// A second driver on the same path observes the value
	other, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	val, ok, err := other.Get(ctx, "token")
	if err != nil || !ok || val != "abc" {
		t.Fatalf("expected abc, got %q (ok=%v, err=%v)", val, ok, err)
	}

	if err := driver.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := other.Get(ctx, "token"); ok {
		t.Fatal("expected key to be deleted")
	}
	if err := driver.Delete(ctx, "token"); err != nil {
		t.Fatalf("deleting a missing key failed: %v", err)
	}
}

func TestDriverCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("token: [unterminated"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	driver, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := driver.Get(context.Background(), "token"); err == nil {
		t.Fatal("expected an error for a corrupt session file")
	}
}
