package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sensorpush"
)

type savedSession struct {
	Email   string             `json:"email"`
	Session sensorpush.Session `json:"session"`
}

func loadSession(path string) (savedSession, error) {
	var s savedSession
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("couldn't decode session file: %w", err)
	}
	return s, nil
}

// writeSession replaces the session file atomically. It holds tokens, so
// it is only readable by the owner.
func writeSession(path string, s savedSession) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("couldn't create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
