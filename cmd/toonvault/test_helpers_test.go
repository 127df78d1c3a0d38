package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeCLIConfig writes a minimal valid config rooted in a temp directory and
// returns its path.
func writeCLIConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	contents := fmt.Sprintf(`
[paths]
staging_dir = %q
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[storage]
url = "s3://key:secret@s3.test.local/region/anime-media"
bucket = "anime-media"
public_host = "s3.test.local"
`,
		filepath.Join(base, "staging"),
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCommand executes the root command with args, capturing combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
