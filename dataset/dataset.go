// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package dataset exports stored samples as a line-delimited JSON
// training corpus.
//
// The exporter pairs the raw source code with the output a person observed
// when running it. It never transpiles, so samples that fail to transpile
// are exported like any other.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy/model"
	"github.com/spf13/afero"
)

// DefaultInstruction is the task description written on every record
// when the configuration does not provide one.
const DefaultInstruction = "Aşağıdaki isteği Türkçe anahtar kelimeli programlama diliyle yerine getiren bir program yaz ve çıktısını göster."

// Record is one line of the corpus.
type Record struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// FormatOutput embeds code in a fenced block followed by its expected output.
func FormatOutput(code, output string) string {
	var sb strings.Builder
	sb.WriteString("```turkpy\n")
	sb.WriteString(strings.TrimRight(code, "\n"))
	sb.WriteString("\n```\n\nÇıktı:\n")
	sb.WriteString(output)
	return sb.String()
}

// NewRecord builds the record for a sample.
func NewRecord(instruction string, sample *model.Sample) Record {
	return Record{
		Instruction: instruction,
		Input:       sample.Request,
		Output:      FormatOutput(sample.Source, sample.ExpectedOutput),
	}
}

// Writer writes records one JSON object per line.
type Writer struct {
	enc *json.Encoder
	n   int
}

func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	// keep "<", ">" and "&" readable in code samples
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return errors.Wrap(err, "encode record")
	}
	w.n++
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int {
	return w.n
}

// ReadAll reads a corpus back. Blank lines are skipped.
func ReadAll(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return records, errors.Wrapf(err, "line %d", line)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// Source lists the samples to export.
type Source interface {
	ListSamples(ctx context.Context, filter model.SampleFilter) ([]model.Sample, error)
}

// Exporter writes the samples of a Source as a corpus.
type Exporter struct {
	source      Source
	instruction string
	fs          afero.Fs
}

// NewExporter returns an exporter that writes to the OS filesystem.
// An empty instruction selects DefaultInstruction.
func NewExporter(source Source, instruction string) *Exporter {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &Exporter{source: source, instruction: instruction, fs: afero.NewOsFs()}
}

// SetFS sets the filesystem for testing.
func (e *Exporter) SetFS(fs afero.Fs) {
	e.fs = fs
}

// WriteTo writes every sample matching filter to w and returns the record count.
func (e *Exporter) WriteTo(ctx context.Context, w io.Writer, filter model.SampleFilter) (int, error) {
	samples, err := e.source.ListSamples(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "list samples")
	}
	jw := NewWriter(w)
	for i := range samples {
		if err := ctx.Err(); err != nil {
			return jw.Count(), err
		}
		if err := jw.Write(NewRecord(e.instruction, &samples[i])); err != nil {
			return jw.Count(), errors.Wrapf(err, "sample %d", samples[i].ID)
		}
	}
	return jw.Count(), nil
}

// Export writes the corpus to path, replacing any existing file.
func (e *Exporter) Export(ctx context.Context, path string, filter model.SampleFilter) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return 0, errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	fd, err := e.fs.Create(path)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", path)
	}
	bw := bufio.NewWriter(fd)
	n, err := e.WriteTo(ctx, bw, filter)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := fd.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "close %s", path)
	}
	return n, err
}
