package script

import (
	"fmt"
	"os"
)

// WriteFile renders the script and writes it with owner-executable bits.
func WriteFile(path string, s *Script) error {
	if err := os.WriteFile(path, []byte(s.Render()), 0755); err != nil {
		return fmt.Errorf("write script %s: %w", path, err)
	}
	return nil
}
