// Package env loads a .env file into the process environment.
//
// Secrets such as the deployer key live in .env (gitignored) rather than in
// the YAML config. Variables already set in the process environment win.
package env

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultFile is read from the working directory.
const DefaultFile = ".env"

// Load reads the given files, or DefaultFile when none are given. Missing
// files are skipped.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
