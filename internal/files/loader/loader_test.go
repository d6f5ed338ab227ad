package loader

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/files/filesystem"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

const dashboardLine = `{"id":"dashboard-1","type":"dashboard","attributes":{"title":"Sales","references":[{"id":"vis-1"}]},"references":[{"id":"index-1","name":"idx"}],"updated_at":"2021-01-01T00:00:00.000Z"}`

func newMemLoader(files map[string]string) *Loader {
	mfs := filesystem.NewMemoryFileSystem("/data")
	for name, content := range files {
		mfs.AddFile(name, content)
	}
	return NewLoaderWithFS(mfs)
}

func TestIsNDJSON(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"sample_saved_objects.ndjson", true},
		{"/abs/dir/objects.ndjson", true},
		{"objects.json", false},
		{"objects.ndjson.bak", false},
		{"objects", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsNDJSON(tt.path), tt.path)
	}
}

func TestLoad_SingleJSON(t *testing.T) {
	l := newMemLoader(map[string]string{
		"object.json": "{\n  \"id\": \"dashboard-1\",\n  \"attributes\": {\"title\": \"Sales\"}\n}\n",
	})

	objects, err := l.Load("object.json")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "dashboard-1", objects[0]["id"])
}

func TestLoad_NDJSON_KLinesYieldKTemplates(t *testing.T) {
	lines := []string{
		dashboardLine,
		`{"id":"vis-1","type":"visualization"}`,
		`{"id":"index-1","type":"index-pattern"}`,
	}
	l := newMemLoader(map[string]string{"objects.ndjson": strings.Join(lines, "\n") + "\n"})

	objects, err := l.Load("objects.ndjson")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "dashboard-1", objects[0]["id"])
	assert.Equal(t, "vis-1", objects[1]["id"])
	assert.Equal(t, "index-1", objects[2]["id"])
}

func TestLoad_NDJSON_SkipsBlankLines(t *testing.T) {
	l := newMemLoader(map[string]string{"objects.ndjson": "\n" + dashboardLine + "\n   \n\r\n"})

	objects, err := l.Load("objects.ndjson")
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestLoad_NDJSON_Empty(t *testing.T) {
	l := newMemLoader(map[string]string{"empty.ndjson": ""})

	objects, err := l.Load("empty.ndjson")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLoad_NDJSON_InvalidLineReportsLineNumber(t *testing.T) {
	l := newMemLoader(map[string]string{"bad.ndjson": dashboardLine + "\n{\"id\": \n"})

	_, err := l.Load("bad.ndjson")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingestor.ErrTemplateLoad))
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad_NumbersKeepPrecision(t *testing.T) {
	l := newMemLoader(map[string]string{"n.json": `{"id":"n","version":12345678901234567890,"ratio":0.1}`})

	objects, err := l.Load("n.json")
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), objects[0]["version"])
	assert.Equal(t, json.Number("0.1"), objects[0]["ratio"])
}

func TestLoad_Errors(t *testing.T) {
	l := newMemLoader(map[string]string{
		"array.json":    `[{"id":"a"}]`,
		"two.json":      `{"id":"a"} {"id":"b"}`,
		"empty.json":    "  ",
		"broken.json":   `{"id":`,
		"scalar.ndjson": "42\n",
		"dir/a.json":    `{"id":"a"}`,
	})

	tests := []struct {
		path    string
		errPart string
	}{
		{"missing.ndjson", "does not exist"},
		{"dir", "is a directory"},
		{"array.json", "an array"},
		{"two.json", "unexpected data"},
		{"empty.json", "no JSON document"},
		{"broken.json", "invalid JSON"},
		{"scalar.ndjson", "a number"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := l.Load(tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ingestor.ErrTemplateLoad), "expected ErrTemplateLoad, got %v", err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoad_OSFileSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "objects.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(dashboardLine+"\n"+dashboardLine+"\n"), 0644))

	objects, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}

func TestLoad_OSFileSystem_Missing(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.ndjson"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingestor.ErrTemplateLoad))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_OSFileSystem_Directory(t *testing.T) {
	_, err := NewLoader().Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingestor.ErrTemplateLoad))
	assert.Contains(t, err.Error(), "is a directory")
}
