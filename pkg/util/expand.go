package util

import (
	"os"

	homedir "github.com/mitchellh/go-homedir"
)

// ExpandPath expands environment variables and a leading ~ in path.
// An empty path stays empty.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return homedir.Expand(os.ExpandEnv(path))
}
