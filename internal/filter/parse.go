package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile adds names read from a file, one per line. Blank lines and
// lines starting with '#' are skipped; surrounding whitespace is trimmed.
func (s *IgnoreSet) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.Add(line); err != nil {
			return fmt.Errorf("ignore file %s line %d: %w", path, lineNum, err)
		}
	}

	return scanner.Err()
}
