// SPDX-License-Identifier: EPL-2.0

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// findUpwards walks from dir to the filesystem root looking for name.
func findUpwards(dir, name string) (string, error) {
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// LoadEnvFile reads KEY=VALUE lines from filename into the process
// environment. A relative name that is missing from the working directory
// is searched for in the parent directories. Variables already present in
// the environment win over the file.
func LoadEnvFile(filename string) error {
	path := filename
	if _, err := os.Stat(path); err != nil {
		if filepath.IsAbs(filename) {
			return fmt.Errorf("env file: %w", err)
		}

		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("env file: %w", err)
		}
		if path, err = findUpwards(wd, filename); err != nil {
			return fmt.Errorf("env file %s: %w", filename, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("env file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("env file %s:%d: %w", path, lineNo, err)
		}
	}

	return scanner.Err()
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, ok := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if q := value[0]; (q == '"' || q == '\'') && value[len(value)-1] == q {
			return key, value[1 : len(value)-1], true
		}
	}
	// strip trailing comments from unquoted values
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}

	return key, value, true
}
