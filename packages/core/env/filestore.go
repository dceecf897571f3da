package env

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type fileFormat int

const (
	formatTOML fileFormat = iota
	formatYAML
	formatDotEnv
)

func formatOf(path string) fileFormat {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".yaml"), strings.HasSuffix(base, ".yml"):
		return formatYAML
	case strings.HasSuffix(base, ".env"), strings.HasPrefix(base, ".env"):
		return formatDotEnv
	default:
		return formatTOML
	}
}

// FileStore caches parsed env files for one run. A file is read the first
// time one of its keys is needed and re-read after a value is persisted.
type FileStore struct {
	docs map[string]map[string]string
}

func NewFileStore() *FileStore {
	return &FileStore{docs: make(map[string]map[string]string)}
}

// Lookup returns key from the env file at path. When the key is missing and
// prompt is not empty the user is asked and the answer is written back to
// the file in its own format.
func (s *FileStore) Lookup(ctx context.Context, path, key, prompt string, ask PromptFunc) (string, error) {
	doc, err := s.load(path)
	if err != nil {
		return "", err
	}
	if v, ok := doc[key]; ok {
		return v, nil
	}

	if prompt == "" || ask == nil {
		return "", fmt.Errorf("key %s in %s: %w", key, path, ErrNotFound)
	}

	v, err := ask(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := persistKey(path, key, v); err != nil {
		return "", err
	}

	delete(s.docs, path)
	if _, err := s.load(path); err != nil {
		return "", err
	}
	return v, nil
}

func (s *FileStore) load(path string) (map[string]string, error) {
	if doc, ok := s.docs[path]; ok {
		return doc, nil
	}
	doc, err := readEnvFile(path)
	if err != nil {
		return nil, err
	}
	s.docs[path] = doc
	return doc, nil
}

func readEnvFile(path string) (map[string]string, error) {
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	return flatten(raw), nil
}

// readRaw decodes the whole env file, nested tables included. A missing
// file is an empty document.
func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	raw := map[string]any{}
	switch formatOf(path) {
	case formatDotEnv:
		doc, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parsing env file %s: %w", path, err)
		}
		for k, v := range doc {
			raw[k] = v
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing env file %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing env file %s: %w", path, err)
		}
	}
	return raw, nil
}

// flatten keeps scalar values as strings; nested tables are not keys.
func flatten(raw map[string]any) map[string]string {
	doc := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			doc[k] = val
		case map[string]any, []any:
		case nil:
			doc[k] = ""
		default:
			doc[k] = fmt.Sprint(val)
		}
	}
	return doc
}

// persistKey adds key to the file on disk. Everything else in the document
// keeps its value and type.
func persistKey(path, key, value string) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}
	raw[key] = value

	var data []byte
	switch formatOf(path) {
	case formatDotEnv:
		var text string
		text, err = godotenv.Marshal(flatten(raw))
		data = []byte(text + "\n")
	case formatYAML:
		data, err = yaml.Marshal(raw)
	default:
		data, err = toml.Marshal(raw)
	}
	if err != nil {
		return fmt.Errorf("encoding env file %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("writing env file: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing env file: %w", err)
	}
	return nil
}
