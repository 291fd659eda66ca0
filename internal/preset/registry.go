package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cellplot/internal/logger"
	"cellplot/internal/ordering"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var log = logger.With("preset")

// Preset 是一组命名的图表选项；未设置的字段沿用请求或全局配置。
type Preset struct {
	Name        string            `yaml:"-" json:"name"`
	Description string            `yaml:"description" json:"description,omitempty"`
	SortBy      string            `yaml:"sort_by" json:"sortBy,omitempty"`
	Stacked     *bool             `yaml:"stacked" json:"stacked,omitempty"`
	Horizontal  *bool             `yaml:"horizontal" json:"horizontal,omitempty"`
	Percentage  *bool             `yaml:"percentage" json:"percentage,omitempty"`
	MinorOrder  []string          `yaml:"minor_order" json:"minorOrder,omitempty"`
	MajorOrder  []string          `yaml:"major_order" json:"majorOrder,omitempty"`
	Colors      map[string]string `yaml:"colors" json:"colors,omitempty"`
	ColorMode   string            `yaml:"color_mode" json:"colorMode,omitempty"`
}

// FileConfig 映射 presets 文件。
type FileConfig struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Snapshot 公开的 preset 快照。
type Snapshot struct {
	Version  int64             `json:"version"`
	LoadedAt time.Time         `json:"loadedAt"`
	Presets  map[string]Preset `json:"presets"`
}

// Names returns preset names sorted.
func (s Snapshot) Names() []string {
	out := make([]string, 0, len(s.Presets))
	for name := range s.Presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ChangeListener 在 registry 重载时触发。
type ChangeListener func(Snapshot)

// Registry 管理图表 preset，文件变更时自动重载。
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry 读取 preset 文件并监听更新。
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("preset registry requires path")
	}
	r := &Registry{path: path}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			// keep serving the previous snapshot
			log.Errorf("reload %s failed: %v", evt.Name, err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	r.v = v
	return r, nil
}

// Snapshot 返回当前 preset 集合的副本。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Preset 按名称查找。
func (r *Registry) Preset(name string) (Preset, bool) {
	if r == nil {
		return Preset{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.snapshot.Presets[strings.TrimSpace(name)]
	return p, ok
}

// OnChange registers a listener called after every successful reload.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	presets, err := ReadFile(r.path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Presets:  presets,
	}
	r.mu.Unlock()
	log.Infof("loaded %d presets from %s", len(presets), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("listener panic: %v", rec)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Presets:  make(map[string]Preset, len(src.Presets)),
	}
	for name, p := range src.Presets {
		dst.Presets[name] = p
	}
	return dst
}

// ReadFile parses and validates a preset file.
func ReadFile(path string) (map[string]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes preset YAML. Every preset is checked against the preset
// schema before it is accepted.
func Parse(raw []byte) (map[string]Preset, error) {
	var generic struct {
		Presets map[string]any `yaml:"presets"`
	}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse preset file: %w", err)
	}
	for name, node := range generic.Presets {
		if err := validateNode(node); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}

	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse preset file: %w", err)
	}
	out := make(map[string]Preset, len(cfg.Presets))
	for name, p := range cfg.Presets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p.Name = name
		p.SortBy = ordering.CanonicalMode(p.SortBy)
		out[name] = p
	}
	return out, nil
}

func validateNode(node any) error {
	raw, err := json.Marshal(node)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return presetSchema.Validate(doc)
}

const presetSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "description": {"type": "string"},
    "sort_by": {"type": "string"},
    "stacked": {"type": "boolean"},
    "horizontal": {"type": "boolean"},
    "percentage": {"type": "boolean"},
    "minor_order": {"type": "array", "items": {"type": "string"}},
    "major_order": {"type": "array", "items": {"type": "string"}},
    "colors": {
      "type": "object",
      "additionalProperties": {"type": "string", "pattern": "^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$"}
    },
    "color_mode": {"enum": ["sample id", "Default", "tissue"]}
  }
}`

var presetSchema = jsonschema.MustCompileString("preset.json", presetSchemaJSON)
