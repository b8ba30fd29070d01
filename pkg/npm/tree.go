package npm

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"golang.org/x/xerrors"

	"github.com/AlexTiTanium/worm-scan/pkg/log"
)

var logger = log.WithPrefix("npm")

// Tree runs `npm ls --all --json` in dir and returns the decoded root node.
// npm exits non-zero for peer dependency problems while still printing a
// usable tree, so the exit status is only fatal when stdout holds no
// decodable JSON object.
func Tree(ctx context.Context, dir string) (any, error) {
	if _, err := exec.LookPath("npm"); err != nil {
		return nil, xerrors.Errorf("npm executable not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "npm", "ls", "--all", "--json")
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		logger.Debug("npm ls exited non-zero, trying to decode its output anyway",
			log.Err(runErr), log.String("stderr", stderr.String()))
	}

	var root any
	if err := json.Unmarshal(stdout.Bytes(), &root); err != nil {
		if runErr != nil {
			return nil, xerrors.Errorf("npm ls failed: %w", runErr)
		}
		return nil, xerrors.Errorf("failed to decode npm ls output: %w", err)
	}
	return root, nil
}
