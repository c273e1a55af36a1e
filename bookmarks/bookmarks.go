package bookmarks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"pagepdf/config"
)

// Load reads a bulk URL file: one URL per line, blank lines and lines
// starting with # ignored. A leading ~/ in path is expanded.
func Load(path string) ([]string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("error loading bookmarks file: %w", err)
	}
	defer file.Close()

	urls, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("error reading bookmarks file %s: %w", expanded, err)
	}
	return urls, nil
}

// Parse reads URLs from r using the same rules as Load.
func Parse(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}
