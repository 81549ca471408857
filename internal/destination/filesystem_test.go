package destination_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kbdump/internal/destination"
)

func TestFileSystemDestination(t *testing.T) {
	root := filepath.Join(t.TempDir(), "export")
	d, err := destination.NewFileSystemDestination(root)
	if err != nil {
		t.Fatalf("NewFileSystemDestination failed: %v", err)
	}

	t.Run("creates root", func(t *testing.T) {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			t.Fatalf("root not created: %v", err)
		}
		if d.Root() != root {
			t.Errorf("Root() = %q, want %q", d.Root(), root)
		}
	})

	t.Run("ensure nested dir", func(t *testing.T) {
		if err := d.EnsureDir("PROJ/A-1/attachments"); err != nil {
			t.Fatalf("EnsureDir failed: %v", err)
		}
		info, err := os.Stat(filepath.Join(root, "PROJ", "A-1", "attachments"))
		if err != nil || !info.IsDir() {
			t.Fatalf("nested directory missing: %v", err)
		}
		// Repeating is not an error.
		if err := d.EnsureDir("PROJ/A-1/attachments"); err != nil {
			t.Errorf("EnsureDir on existing dir failed: %v", err)
		}
	})

	t.Run("write file", func(t *testing.T) {
		content := "# Title\n"
		if err := d.WriteFile("PROJ/A-1/README.md", strings.NewReader(content), int64(len(content))); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(root, "PROJ", "A-1", "README.md"))
		if err != nil {
			t.Fatalf("reading back: %v", err)
		}
		if string(data) != content {
			t.Errorf("got %q, want %q", data, content)
		}
	})

	t.Run("overwrite replaces content", func(t *testing.T) {
		if err := d.WriteFile("PROJ/A-1/README.md", strings.NewReader("v2"), 2); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		data, _ := os.ReadFile(filepath.Join(root, "PROJ", "A-1", "README.md"))
		if string(data) != "v2" {
			t.Errorf("got %q, want v2", data)
		}
	})

	t.Run("unknown size accepted", func(t *testing.T) {
		if err := d.WriteFile("PROJ/A-1/attachments/blob.bin", strings.NewReader("abc"), -1); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	})

	t.Run("size mismatch rejected", func(t *testing.T) {
		err := d.WriteFile("PROJ/A-1/short.bin", strings.NewReader("abc"), 99)
		if err == nil {
			t.Fatal("expected a size mismatch error")
		}
		if _, statErr := os.Stat(filepath.Join(root, "PROJ", "A-1", "short.bin")); !os.IsNotExist(statErr) {
			t.Error("rejected write left a file behind")
		}
	})

	t.Run("no temp files left", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Join(root, "PROJ", "A-1"))
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".tmp-") {
				t.Errorf("leftover temp file %q", e.Name())
			}
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		if err := d.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup failed: %v", err)
		}
	})
}

func TestFileSystemValidateSetupMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "export")
	d, err := destination.NewFileSystemDestination(root)
	if err != nil {
		t.Fatalf("NewFileSystemDestination failed: %v", err)
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("removing root: %v", err)
	}
	if err := d.ValidateSetup(); err == nil {
		t.Fatal("expected an error for a missing root")
	}
}
