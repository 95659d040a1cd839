// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package dataset_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mdhender/turkpy/dataset"
	"github.com/mdhender/turkpy/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	samples []model.Sample
	filter  model.SampleFilter
}

func (f *fakeSource) ListSamples(_ context.Context, filter model.SampleFilter) ([]model.Sample, error) {
	f.filter = filter
	return f.samples, nil
}

func TestFormatOutput(t *testing.T) {
	got := dataset.FormatOutput("yazdır(\"Merhaba\")\n", "Merhaba")
	assert.Equal(t, "```turkpy\nyazdır(\"Merhaba\")\n```\n\nÇıktı:\nMerhaba", got)
}

func TestWriter_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	w := dataset.NewWriter(&buf)
	require.NoError(t, w.Write(dataset.Record{Instruction: "i", Input: "a < b && c", Output: "o"}))
	require.NoError(t, w.Write(dataset.Record{Instruction: "i", Input: "çok\nsatır", Output: "o"}))
	assert.Equal(t, 2, w.Count())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"instruction":"i","input":"a < b && c","output":"o"}`, lines[0])
	assert.Equal(t, `{"instruction":"i","input":"çok\nsatır","output":"o"}`, lines[1])
}

func TestExport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	batchID := int64(3)
	src := &fakeSource{samples: []model.Sample{
		{ID: 1, Request: "Merhaba yaz", Source: `yazdır("Merhaba")`, ExpectedOutput: "Merhaba"},
		// exported even though it does not transpile
		{ID: 2, Request: "Bozuk", Source: "yazdır(", ExpectedOutput: ""},
	}}
	fs := afero.NewMemMapFs()
	exp := dataset.NewExporter(src, "")
	exp.SetFS(fs)

	n, err := exp.Export(ctx, "/out/corpus.jsonl", model.SampleFilter{BatchID: &batchID, VerifiedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, src.filter.VerifiedOnly)
	require.NotNil(t, src.filter.BatchID)

	data, err := afero.ReadFile(fs, "/out/corpus.jsonl")
	require.NoError(t, err)
	records, err := dataset.ReadAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, dataset.Record{
		Instruction: dataset.DefaultInstruction,
		Input:       "Merhaba yaz",
		Output:      "```turkpy\nyazdır(\"Merhaba\")\n```\n\nÇıktı:\nMerhaba",
	}, records[0])
	assert.Equal(t, "```turkpy\nyazdır(\n```\n\nÇıktı:\n", records[1].Output)
}

func TestExport_CustomInstruction(t *testing.T) {
	src := &fakeSource{samples: []model.Sample{{Request: "r", Source: "yazdır(1)", ExpectedOutput: "1"}}}
	var buf bytes.Buffer
	n, err := dataset.NewExporter(src, "Programı yaz.").WriteTo(context.Background(), &buf, model.SampleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), `"instruction":"Programı yaz."`)
}

func TestReadAll_BadLine(t *testing.T) {
	_, err := dataset.ReadAll(strings.NewReader("{\"input\":\"a\"}\n\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
