package npm_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTiTanium/worm-scan/pkg/npm"
)

// fakeNpm puts a shell script named npm at the front of PATH for the test.
func fakeNpm(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "npm")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	t.Setenv("PATH", dir)
}

func TestTree(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    []npm.Package
		wantErr string
	}{
		{
			name:   "clean exit",
			script: `echo '{"name":"app","version":"0.1.0","dependencies":{"left-pad":{"version":"1.3.0"}}}'`,
			want: []npm.Package{
				{Name: "app", Version: "0.1.0"},
				{Name: "left-pad", Version: "1.3.0"},
			},
		},
		{
			// npm ls exits non-zero on peer dependency problems while
			// still printing the tree; the tree must survive.
			name:   "tree decoded despite non-zero exit",
			script: `echo '{"name":"app","version":"0.1.0"}'; echo 'npm ERR! peer dep missing' >&2; exit 1`,
			want:   []npm.Package{{Name: "app", Version: "0.1.0"}},
		},
		{
			name:    "non-zero exit with undecodable output",
			script:  `echo 'npm ERR! something broke' >&2; exit 1`,
			wantErr: "npm ls failed",
		},
		{
			name:    "clean exit with undecodable output",
			script:  `echo 'not json'`,
			wantErr: "failed to decode npm ls output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeNpm(t, tt.script)

			root, err := npm.Tree(context.Background(), t.TempDir())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, npm.Flatten(root))
		})
	}
}

func TestTree_NpmMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := npm.Tree(context.Background(), ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "npm executable not found")
}
