// Package output delivers a formatted gap listing to its destination.
package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

// Sink receives the final listing.
type Sink interface {
	Deliver(ctx context.Context, listing string) error
}

// Writer writes the listing to an io.Writer such as stdout.
type Writer struct {
	W io.Writer
}

func (s Writer) Deliver(_ context.Context, listing string) error {
	if _, err := io.WriteString(s.W, listing); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	return nil
}

// File writes the listing to a file, replacing any previous content.
type File struct {
	Path string
}

func (s File) Deliver(_ context.Context, listing string) error {
	if err := os.WriteFile(s.Path, []byte(listing), 0o644); err != nil {
		return fmt.Errorf("failed to write listing to %s: %w", s.Path, err)
	}
	return nil
}

// Clipboard copies the listing to the system clipboard.
type Clipboard struct {
	write func(string) error
}

// NewClipboard returns a sink backed by the system clipboard.
func NewClipboard() Clipboard {
	return Clipboard{write: clipboard.WriteAll}
}

func (s Clipboard) Deliver(_ context.Context, listing string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	if err := s.write(listing); err != nil {
		return fmt.Errorf("failed to copy listing to clipboard: %w", err)
	}
	return nil
}

// Multi delivers to every sink in order and stops at the first failure.
type Multi []Sink

func (m Multi) Deliver(ctx context.Context, listing string) error {
	for _, s := range m {
		if err := s.Deliver(ctx, listing); err != nil {
			return err
		}
	}
	return nil
}
