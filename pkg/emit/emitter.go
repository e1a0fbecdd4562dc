package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/rspec"
	"github.com/rzbill/labnet/pkg/types"
	"gopkg.in/yaml.v3"
)

// Format is a descriptor serialization format.
type Format string

const (
	// FormatRSpec is the request rspec XML the provisioning service expects.
	FormatRSpec Format = "rspec"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatRSpec, FormatYAML, FormatJSON}

// ParseFormat parses a format name. "xml" is accepted for rspec.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "rspec", "xml":
		return FormatRSpec, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported descriptor format %q", s)
	}
}

// Marshal serializes the whole topology in the given format.
func Marshal(format Format, t *types.Topology) ([]byte, error) {
	switch format {
	case FormatRSpec:
		return rspec.Marshal(t)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(t)); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(NewDocument(t), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported descriptor format %q", format)
	}
}

// Submitter delivers a serialized descriptor to the provisioning channel.
type Submitter interface {
	Submit(ctx context.Context, doc []byte) error
}

// WriterSubmitter writes the descriptor to an io.Writer, typically stdout.
type WriterSubmitter struct {
	W io.Writer
}

// Submit writes doc in a single call.
func (s WriterSubmitter) Submit(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := s.W.Write(doc)
	if err != nil {
		return err
	}
	if n != len(doc) {
		return io.ErrShortWrite
	}
	return nil
}

// FileSubmitter writes the descriptor to a file. The file is replaced
// atomically so readers never observe a partial document.
type FileSubmitter struct {
	Path string
}

// Submit writes doc to a temporary file next to Path and renames it into place.
func (s FileSubmitter) Submit(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), s.Path)
}

// Emitter turns one topology into one document and hands it to the
// submitter. There are no retries.
type Emitter struct {
	Format    Format
	Submitter Submitter
	Logger    log.Logger
}

// New creates an Emitter.
func New(format Format, submitter Submitter, logger log.Logger) *Emitter {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Emitter{
		Format:    format,
		Submitter: submitter,
		Logger:    logger.WithComponent("emitter"),
	}
}

// Emit serializes t completely before submitting it. Every failure is an
// *types.EmissionError.
func (e *Emitter) Emit(ctx context.Context, t *types.Topology) error {
	doc, err := Marshal(e.Format, t)
	if err != nil {
		return &types.EmissionError{Format: string(e.Format), Stage: "serialize", Err: err}
	}

	if err := e.Submitter.Submit(ctx, doc); err != nil {
		return &types.EmissionError{Format: string(e.Format), Stage: "submit", Err: err}
	}

	e.Logger.Debug("descriptor emitted",
		log.Str("format", string(e.Format)),
		log.Int("bytes", len(doc)),
		log.Int("nodes", len(t.Nodes)),
		log.Int("links", len(t.Links())))
	return nil
}
