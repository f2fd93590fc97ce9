package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close() //nolint:errcheck
	return enc.EncodeAll(data, nil)
}

func questions(t *testing.T, b Bundle, split string) []string {
	t.Helper()
	s, ok := b.Split(split)
	require.True(t, ok, "split %q missing", split)
	var out []string
	for _, rec := range collect(t, s) {
		out = append(out, rec.String("question"))
	}
	return out
}

func TestLocalLoaderAvailable(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewLocalLoader(dir).Available())

	assert.Error(t, NewLocalLoader("").Available())
	assert.Error(t, NewLocalLoader(filepath.Join(dir, "missing")).Available())

	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, []byte("x"))
	assert.Error(t, NewLocalLoader(file).Available())
}

func TestLocalLoaderFormats(t *testing.T) {
	dir := t.TempDir()
	jsonl := []byte("{\"question\":\"q0\"}\n\n{\"question\":\"q1\"}\n")
	base := filepath.Join(dir, "trivia_qa", "rc.web.nocontext")

	writeFile(t, filepath.Join(base, "train.jsonl"), jsonl)
	writeFile(t, filepath.Join(base, "validation.json"), []byte(`[{"question":"v0"},{"question":"v1"},{"question":"v2"}]`))
	writeFile(t, filepath.Join(base, "test.csv"), []byte("question,answer\nc0,a\n"))
	writeFile(t, filepath.Join(base, "extra.jsonl.gz"), gzipBytes(t, jsonl))
	writeFile(t, filepath.Join(base, "more.jsonl.zst"), zstdBytes(t, jsonl))
	writeFile(t, filepath.Join(base, "README.md"), []byte("ignored"))

	b, err := NewLocalLoader(dir).Load(context.Background(), "trivia_qa", "rc.web.nocontext")
	require.NoError(t, err)

	assert.Equal(t, []string{"train", "validation", "test", "extra", "more"}, b.Splits())
	assert.Equal(t, []string{"q0", "q1"}, questions(t, b, "train"))
	assert.Equal(t, []string{"v0", "v1", "v2"}, questions(t, b, "validation"))
	assert.Equal(t, []string{"c0"}, questions(t, b, "test"))
	assert.Equal(t, []string{"q0", "q1"}, questions(t, b, "extra"))
	assert.Equal(t, []string{"q0", "q1"}, questions(t, b, "more"))

	_, ok := b.Split("README")
	assert.False(t, ok)
}

func TestLocalLoaderNestedDatasetID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cais", "mmlu", "all", "test.jsonl"),
		[]byte(`{"question":"Pick","choices":["a","b","c","d"]}`+"\n"))

	b, err := NewLocalLoader(dir).Load(context.Background(), "cais/mmlu", "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, b.Splits())

	s, _ := b.Split("test")
	recs := collect(t, s)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"a", "b", "c", "d"}, recs[0].Strings("choices"))
}

func TestLocalLoaderDefaultConfig(t *testing.T) {
	t.Run("files in dataset dir", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "nq_open", "train.jsonl"), []byte(`{"question":"top"}`))

		b, err := NewLocalLoader(dir).Load(context.Background(), "nq_open", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"top"}, questions(t, b, "train"))
	})

	t.Run("default subdirectory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "nq_open", "default", "validation.jsonl"), []byte(`{"question":"nested"}`))

		b, err := NewLocalLoader(dir).Load(context.Background(), "nq_open", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"validation"}, b.Splits())
	})
}

func TestLocalLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ds", "cfg", "train.jsonl"), []byte(`{"question":"q"}`))
	writeFile(t, filepath.Join(dir, "dup", "train.jsonl"), []byte(`{}`))
	writeFile(t, filepath.Join(dir, "dup", "train.csv"), []byte("question\nx\n"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	tests := []struct {
		name    string
		id      string
		config  string
		wantErr string
	}{
		{"unknown dataset", "nope", "", `dataset "nope" not found`},
		{"unknown config", "ds", "other", `dataset "ds" has no config "other"`},
		{"no split files", "empty", "", `dataset "empty" has no split files`},
		{"ambiguous split", "dup", "", `split "train" is ambiguous`},
	}

	loader := NewLocalLoader(dir)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(context.Background(), tt.id, tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocalSplitBadRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ds", "train.jsonl"), []byte("{\"question\":\"ok\"}\nnot json\n"))
	writeFile(t, filepath.Join(dir, "ds", "validation.json"), []byte(`{"question":"not an array"}`))

	b, err := NewLocalLoader(dir).Load(context.Background(), "ds", "")
	require.NoError(t, err)

	s, _ := b.Split("train")
	var good int
	var lastErr error
	for rec, err := range s.Records(context.Background()) {
		if err != nil {
			lastErr = err
			break
		}
		assert.Equal(t, "ok", rec.String("question"))
		good++
	}
	assert.Equal(t, 1, good)
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "line 2")

	s, _ = b.Split("validation")
	for _, err := range s.Records(context.Background()) {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must hold an array")
	}
}

func TestParseSplitFileName(t *testing.T) {
	tests := []struct {
		name        string
		ok          bool
		split       string
		format      string
		compression string
	}{
		{"train.jsonl", true, "train", "jsonl", ""},
		{"train.json", true, "train", "json", ""},
		{"test.csv.gz", true, "test", "csv", "gz"},
		{"validation.jsonl.zst", true, "validation", "jsonl", "zst"},
		{"auxiliary_train.jsonl", true, "auxiliary_train", "jsonl", ""},
		{".jsonl", false, "", "", ""},
		{"notes.txt", false, "", "", ""},
		{"data.gz", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := parseSplitFileName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.split, f.split)
			assert.Equal(t, tt.format, f.format)
			assert.Equal(t, tt.compression, f.compression)
		})
	}
}

func TestLocalLoaderKeepsNumberText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ds", "train.jsonl"), []byte(`{"question":7.0,"choices":[1,2.50,true]}`+"\n"))
	writeFile(t, filepath.Join(dir, "ds", "test.json"), []byte(`[{"question":12}]`))

	b, err := NewLocalLoader(dir).Load(context.Background(), "ds", "")
	require.NoError(t, err)

	s, ok := b.Split("train")
	require.True(t, ok)
	recs := collect(t, s)
	require.Len(t, recs, 1)
	assert.Equal(t, "7.0", recs[0].String("question"))
	assert.Equal(t, []string{"1", "2.50", "True"}, recs[0].Strings("choices"))

	assert.Equal(t, []string{"12"}, questions(t, b, "test"))
}
