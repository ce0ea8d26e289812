package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/translatebot/internal/excel"
	"github.com/example/translatebot/internal/logger"
	"github.com/example/translatebot/pkg/models"
	"golang.org/x/text/language"
)

// LoadConfig describes where content sets live and how they are encoded.
type LoadConfig struct {
	Dir         string
	SourceField string // JSON field with the text to translate
	TargetField string // JSON field with the reference translation
	Language    language.Tag
	SheetName   string // Spreadsheet sheet, first sheet when empty
}

// DefaultLoadConfig matches the dictionary files the bot has always used:
// a JSON array of {"en": ..., "ru": ...} objects.
func DefaultLoadConfig(dir string) LoadConfig {
	return LoadConfig{
		Dir:         dir,
		SourceField: "en",
		TargetField: "ru",
		Language:    language.Russian,
	}
}

// Load discovers every content file in cfg.Dir and returns the validated store.
// Any malformed file aborts the load.
func Load(cfg LoadConfig, log *logger.Logger) (*Store, error) {
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	sets := make(map[string][]models.Item)
	origin := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		ext := strings.ToLower(filepath.Ext(fileName))
		path := filepath.Join(cfg.Dir, fileName)

		var items []models.Item
		switch ext {
		case ".json":
			items, err = loadJSON(path, cfg.SourceField, cfg.TargetField)
		case ".xlsx", ".xlsm", ".csv":
			importCfg := excel.DefaultImportConfig()
			importCfg.FilePath = path
			importCfg.SheetName = cfg.SheetName
			items, err = excel.ImportItems(importCfg)
		default:
			log.Debug("skipping non-content file", "file", fileName)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", fileName, err)
		}

		name := strings.TrimSpace(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
		if name == "" {
			return nil, fmt.Errorf("load %s: empty content set name", fileName)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("load %s: content set has no items", fileName)
		}
		if prev, dup := origin[name]; dup {
			return nil, fmt.Errorf("load %s: content set %q already defined by %s", fileName, name, prev)
		}
		sets[name] = items
		origin[name] = fileName
		log.Info("content set loaded", "name", name, "items", len(items), "file", fileName)
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("%s: %w", cfg.Dir, ErrNoContent)
	}
	return NewStore(sets, cfg.Language), nil
}

func loadJSON(path, sourceField, targetField string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	items := make([]models.Item, 0, len(raw))
	for i, obj := range raw {
		source, err := textField(obj, sourceField)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		target, err := textField(obj, targetField)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, models.Item{Source: source, Target: target})
	}
	return items, nil
}

func textField(obj map[string]any, field string) (string, error) {
	v, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("missing field %q", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("field %q is empty", field)
	}
	return s, nil
}
