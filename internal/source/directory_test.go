package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"doc-qa-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor 把文件内容按 "|" 分成页。
type fakeExtractor struct {
	err   error
	calls []string
}

func (f *fakeExtractor) ExtractPages(_ context.Context, r io.Reader, name string) ([]string, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var pages []string
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '|' {
			pages = append(pages, string(b[start:i]))
			start = i + 1
		}
	}
	return append(pages, string(b[start:])), nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestDirectoryLoader_LoadsPagesInOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.pdf":     "b0|b1",
		"a.PDF":     "a0",
		"notes.txt": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	ext := &fakeExtractor{}
	docs, err := NewDirectoryLoader(dir, ext).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, model.Document{Source: "a.PDF", Page: 0, Text: "a0"}, docs[0])
	assert.Equal(t, model.Document{Source: "b.pdf", Page: 0, Text: "b0"}, docs[1])
	assert.Equal(t, model.Document{Source: "b.pdf", Page: 1, Text: "b1"}, docs[2])
	assert.Equal(t, []string{"a.PDF", "b.pdf"}, ext.calls)
}

func TestDirectoryLoader_MissingDirectory(t *testing.T) {
	_, err := NewDirectoryLoader(filepath.Join(t.TempDir(), "nope"), &fakeExtractor{}).Load(context.Background())
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
}

func TestDirectoryLoader_NotADirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{"file.pdf": "x"})
	_, err := NewDirectoryLoader(filepath.Join(dir, "file.pdf"), &fakeExtractor{}).Load(context.Background())
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
}

func TestDirectoryLoader_NoPDFs(t *testing.T) {
	dir := writeFiles(t, map[string]string{"readme.md": "x"})
	ext := &fakeExtractor{}
	_, err := NewDirectoryLoader(dir, ext).Load(context.Background())
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.Empty(t, ext.calls)
}

func TestDirectoryLoader_ExtractionFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.pdf": "x"})
	_, err := NewDirectoryLoader(dir, &fakeExtractor{err: errors.New("tika down")}).Load(context.Background())
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "tika down")
}

func TestDirectoryLoader_Sources(t *testing.T) {
	dir := writeFiles(t, map[string]string{"z.pdf": "", "m.pdf": "", "x.doc": ""})
	names, err := NewDirectoryLoader(dir, &fakeExtractor{}).Sources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"m.pdf", "z.pdf"}, names)
}

func TestLimit(t *testing.T) {
	docs := make([]model.Document, 25)
	for i := range docs {
		docs[i].Page = i
	}
	limited := Limit(docs, 20)
	require.Len(t, limited, 20)
	assert.Equal(t, 19, limited[19].Page)

	assert.Len(t, Limit(docs, 0), 25)
	assert.Len(t, Limit(docs[:3], 20), 3)
}

func TestMD5File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	sum, err := md5File(p)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	_, err = md5File(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
