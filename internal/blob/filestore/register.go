package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5/util"
)

// Read returns the register value. A register file that was never written
// reads as "".
func (s *Store) Read(_ context.Context) (string, error) {
	data, err := util.ReadFile(s.fs, registerFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read register: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write blindly replaces the register value. The replacement goes through a
// temp file and a rename so a crash never leaves a torn register, only the
// old value or the new one.
func (s *Store) Write(_ context.Context, value string) error {
	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	if err := s.writeAtomic(".", registerFile, []byte(value+"\n")); err != nil {
		return fmt.Errorf("write register: %w", err)
	}
	return nil
}
