// Package env overlays RAGNOTE_* environment variables on another config store.
//
// A .env file is loaded first (without overriding variables already set), so
// API keys can live next to the project instead of in config.toml.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// Prefix is the environment variable prefix, e.g. RAGNOTE_CHAT_MODEL.
const Prefix = "RAGNOTE"

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Vars lists the settings that may be overridden from the environment.
// Nil fields are unset. The key tag names the config key a field overrides.
type Vars struct {
	EmbeddingProvider   *string `envconfig:"EMBEDDING_PROVIDER" key:"embedding.provider"`
	EmbeddingModel      *string `envconfig:"EMBEDDING_MODEL" key:"embedding.model"`
	EmbeddingBaseURL    *string `envconfig:"EMBEDDING_BASE_URL" key:"embedding.base_url"`
	EmbeddingAPIKey     *string `envconfig:"EMBEDDING_API_KEY" key:"embedding.api_key"`
	EmbeddingBatchSize  *int    `envconfig:"EMBEDDING_BATCH_SIZE" key:"embedding.batch_size"`
	EmbeddingDimensions *int    `envconfig:"EMBEDDING_DIMENSIONS" key:"embedding.dimensions"`

	ChatProvider     *string `envconfig:"CHAT_PROVIDER" key:"chat.provider"`
	ChatModel        *string `envconfig:"CHAT_MODEL" key:"chat.model"`
	ChatBaseURL      *string `envconfig:"CHAT_BASE_URL" key:"chat.base_url"`
	ChatAPIKey       *string `envconfig:"CHAT_API_KEY" key:"chat.api_key"`
	ChatSystemPrompt *string `envconfig:"CHAT_SYSTEM_PROMPT" key:"chat.system_prompt"`
	ChatStream       *bool   `envconfig:"CHAT_STREAM" key:"chat.stream"`

	ChunkingSize    *int `envconfig:"CHUNKING_SIZE" key:"chunking.size"`
	ChunkingOverlap *int `envconfig:"CHUNKING_OVERLAP" key:"chunking.overlap"`

	RetrievalTopK            *int     `envconfig:"RETRIEVAL_TOP_K" key:"retrieval.top_k"`
	RetrievalMinSimilarity   *float64 `envconfig:"RETRIEVAL_MIN_SIMILARITY" key:"retrieval.min_similarity"`
	RetrievalUseRAG          *bool    `envconfig:"RETRIEVAL_USE_RAG" key:"retrieval.use_rag"`
	RetrievalMaxContextChars *int     `envconfig:"RETRIEVAL_MAX_CONTEXT_CHARS" key:"retrieval.max_context_chars"`

	IngestWorkers *int `envconfig:"INGEST_WORKERS" key:"ingest.workers"`
}

// Values returns the set variables keyed by config key.
func (v *Vars) Values() map[string]any {
	out := make(map[string]any)

	rv := reflect.ValueOf(v).Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rv.Field(i)
		if field.Kind() != reflect.Ptr || field.IsNil() {
			continue
		}
		out[rt.Field(i).Tag.Get("key")] = field.Elem().Interface()
	}

	return out
}

// Overlay is a driven.ConfigStore whose reads prefer environment values.
// Writes go to the wrapped store; the environment itself is never modified,
// so a value set through Set stays hidden while the variable is present.
type Overlay struct {
	base      driven.ConfigStore
	envFiles  []string
	mu        sync.RWMutex
	overrides map[string]any
}

// NewOverlay wraps base. envFiles are loaded with godotenv before the
// environment is read; missing files are ignored. Pass no files to skip .env.
func NewOverlay(base driven.ConfigStore, envFiles ...string) (*Overlay, error) {
	o := &Overlay{
		base:      base,
		envFiles:  envFiles,
		overrides: make(map[string]any),
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := o.readEnv(); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *Overlay) readEnv() error {
	var vars Vars
	if err := envconfig.Process(Prefix, &vars); err != nil {
		return fmt.Errorf("%w: environment: %w", domain.ErrInvalidConfig, err)
	}

	o.mu.Lock()
	o.overrides = vars.Values()
	o.mu.Unlock()
	return nil
}

// Overridden returns the config keys currently supplied by the environment.
func (o *Overlay) Overridden() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	keys := make([]string, 0, len(o.overrides))
	for k := range o.overrides {
		keys = append(keys, k)
	}
	return keys
}

// Get retrieves a value, preferring the environment.
func (o *Overlay) Get(key string) (any, bool) {
	o.mu.RLock()
	val, ok := o.overrides[key]
	o.mu.RUnlock()
	if ok {
		return val, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string value.
func (o *Overlay) GetString(key string) string {
	if s, ok := o.override(key).(string); ok {
		return s
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer value.
func (o *Overlay) GetInt(key string) int {
	if n, ok := o.override(key).(int); ok {
		return n
	}
	return o.base.GetInt(key)
}

// GetFloat retrieves a floating-point value.
func (o *Overlay) GetFloat(key string) float64 {
	switch v := o.override(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return o.base.GetFloat(key)
}

// GetBool retrieves a boolean value.
func (o *Overlay) GetBool(key string) bool {
	if b, ok := o.override(key).(bool); ok {
		return b
	}
	return o.base.GetBool(key)
}

// GetStringSlice retrieves a string slice value. The environment carries none.
func (o *Overlay) GetStringSlice(key string) []string {
	return o.base.GetStringSlice(key)
}

func (o *Overlay) override(key string) any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.overrides[key]
}

// Set writes to the wrapped store.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Save persists the wrapped store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Load reloads the wrapped store and re-reads the environment.
func (o *Overlay) Load() error {
	if err := o.base.Load(); err != nil {
		return err
	}
	return o.readEnv()
}

// Path returns the wrapped store's path.
func (o *Overlay) Path() string {
	return o.base.Path()
}
