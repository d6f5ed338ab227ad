package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/files/filesystem"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// Loader reads template saved objects through a filesystem provider.
type Loader struct {
	fs filesystem.FileSystemProvider
}

// NewLoader creates a loader reading from the OS filesystem.
func NewLoader() *Loader {
	return NewLoaderWithFS(filesystem.NewOSFileSystem())
}

// NewLoaderWithFS creates a loader reading from fsProvider.
func NewLoaderWithFS(fsProvider filesystem.FileSystemProvider) *Loader {
	return &Loader{fs: fsProvider}
}

// IsNDJSON reports whether path is read line by line.
func IsNDJSON(path string) bool {
	return strings.HasSuffix(path, ingestor.NDJSONExtension)
}

// Load returns the saved objects stored in path, in file order.
// Every failure wraps ingestor.ErrTemplateLoad.
func (l *Loader) Load(path string) ([]ingestor.SavedObject, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: saved objects file %s does not exist: %w", ingestor.ErrTemplateLoad, path, err)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ingestor.ErrTemplateLoad, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory, not a saved objects file", ingestor.ErrTemplateLoad, path)
	}

	content, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ingestor.ErrTemplateLoad, path, err)
	}

	if IsNDJSON(path) {
		objects, err := decodeNDJSON(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ingestor.ErrTemplateLoad, path, err)
		}
		return objects, nil
	}

	obj, err := decodeDocument(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ingestor.ErrTemplateLoad, path, err)
	}
	return []ingestor.SavedObject{obj}, nil
}

func decodeNDJSON(content []byte) ([]ingestor.SavedObject, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), ingestor.MaxTemplateLineBytes)

	var objects []ingestor.SavedObject
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		obj, err := decodeDocument(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
	}

	return objects, nil
}

// decodeDocument decodes exactly one JSON object from data.
func decodeDocument(data []byte) (ingestor.SavedObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no JSON document found")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", describe(value))
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	return obj, nil
}

func describe(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

var _ ingestor.TemplateLoader = (*Loader)(nil)
