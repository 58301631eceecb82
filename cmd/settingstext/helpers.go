package main

import (
	"fmt"
	"io"
	"os"
)

// readInput reads path, or stdin when path is "-". An empty path yields nil.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}
}

// writeOutput writes text plus a trailing newline to path, or to w when
// path is empty
func writeOutput(path string, w io.Writer, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
