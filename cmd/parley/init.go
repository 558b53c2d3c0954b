package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parley-cli/parley/examples"
)

// runInit installs the example config file so a new user has something
// to edit. With no directory argument it targets the per-user config
// directory, which is on the config search path. Existing files are
// never overwritten.
func runInit(w io.Writer, dir string) error {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "parley")
	}

	fmt.Fprintf(w, "Initializing Parley configuration in %s\n", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// The config may hold an API key, so keep it private to the user.
	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(w, configPath, examples.ConfigYAML, 0o600); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit config.yaml to set an OpenAI API key, or export OPENAI_API_KEY.")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist, so init never clobbers user customizations. It prints
// a per-file status line to w.
func writeIfMissing(w io.Writer, path string, content []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if errors.Is(err, os.ErrExist) {
		fmt.Fprintf(w, "  - %s (exists, skipping)\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(w, "  ✓ %s\n", path)
	return nil
}
