package iojson

import (
	"fmt"
	"io"
	"os"

	"github.com/hay-kot/battle/pkg/jsonc"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a JSON (comments allowed) document named by a --file
// flag, or piped on stdin.
type FileReader[T any] struct {
	fileFlagValue string
	stdin         io.Reader
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

func (fr *FileReader[T]) Read() (T, error) {
	var input T

	var data []byte
	var err error
	switch {
	case fr.fileFlagValue != "":
		data, err = os.ReadFile(fr.fileFlagValue)
		if err != nil {
			return input, fmt.Errorf("read file: %w", err)
		}
	case fr.stdin != nil:
		data, err = io.ReadAll(fr.stdin)
	default:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return input, fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe JSON input")
		}
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return input, fmt.Errorf("read stdin: %w", err)
	}

	if err := jsonc.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
