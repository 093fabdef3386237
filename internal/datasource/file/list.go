package file

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crashdash/internal/config"
)

// ReadList reads a list file and returns its non-empty, non-comment lines in
// order. Lines whose first non-blank character is '#' are comments.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadSources reads a sources list file. Each line is a location, optionally
// followed by a tab and a display name:
//
//	# Petropolis exports
//	acidentes_petropolis.csv
//	DETRAN PETROPOLIS 2025.csv	detran-2025
//	https://example.org/detran-2024.csv
//
// Relative paths resolve against the list file's directory; URLs are kept
// verbatim.
func ReadSources(path string) ([]config.Source, error) {
	lines, err := ReadList(path)
	if err != nil {
		return nil, fmt.Errorf("read sources list: %w", err)
	}
	base := filepath.Dir(path)
	out := make([]config.Source, 0, len(lines))
	for _, line := range lines {
		loc, name, _ := strings.Cut(line, "\t")
		loc = strings.TrimSpace(loc)
		name = strings.TrimSpace(name)
		if !strings.Contains(loc, "://") && !filepath.IsAbs(loc) {
			loc = filepath.Join(base, loc)
		}
		out = append(out, config.Source{Location: loc, Name: name, Parser: config.Options{}})
	}
	return out, nil
}
