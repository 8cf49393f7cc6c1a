// Package environ captures an immutable view of the configuration
// environment. A Snapshot layers, lowest precedence first: YAML env files,
// dotenv files, the process environment, explicit overrides and changed CLI
// flags. Every resolution pass reads exactly one Snapshot, so a concurrent
// os.Setenv can never be observed halfway through a pass.
package environ

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const delim = "."

// Snapshot is a read-only set of environment variables.
type Snapshot struct {
	k *koanf.Koanf
}

// Option configures Capture.
type Option func(*options)

type options struct {
	yamlFiles   []string
	dotenvFiles []string
	processEnv  bool
	overrides   map[string]string
	flags       *pflag.FlagSet
	flagVars    map[string]string
}

// WithYAMLFile adds a YAML document whose top-level keys are variable names.
// Non-scalar values are handed to callers re-encoded as JSON.
func WithYAMLFile(path string) Option {
	return func(o *options) {
		if p := strings.TrimSpace(path); p != "" {
			o.yamlFiles = append(o.yamlFiles, p)
		}
	}
}

// WithDotenv adds dotenv files. Later files win over earlier ones.
func WithDotenv(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			if p = strings.TrimSpace(p); p != "" {
				o.dotenvFiles = append(o.dotenvFiles, p)
			}
		}
	}
}

// WithoutProcessEnv skips the process environment layer.
func WithoutProcessEnv() Option {
	return func(o *options) {
		o.processEnv = false
	}
}

// WithOverrides sets variables above the process environment.
func WithOverrides(vars map[string]string) Option {
	return func(o *options) {
		for k, v := range vars {
			o.overrides[k] = v
		}
	}
}

// WithFlags maps changed flags onto variables; vars is keyed by flag name.
// Flags left at their default never shadow the environment.
func WithFlags(fs *pflag.FlagSet, vars map[string]string) Option {
	return func(o *options) {
		o.flags = fs
		o.flagVars = vars
	}
}

// Capture reads every configured layer once and freezes the result.
func Capture(opts ...Option) (*Snapshot, error) {
	o := options{processEnv: true, overrides: map[string]string{}}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(delim)

	for _, path := range o.yamlFiles {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load env yaml %s: %w", path, err)
		}
	}

	if len(o.dotenvFiles) > 0 {
		vars, err := godotenv.Read(o.dotenvFiles...)
		if err != nil {
			return nil, fmt.Errorf("load dotenv %s: %w", strings.Join(o.dotenvFiles, ", "), err)
		}
		for name, value := range vars {
			k.Set(name, value)
		}
	}

	if o.processEnv {
		// Blank variables do not shadow values from the file layers.
		provider := env.ProviderWithValue("", delim, func(key, value string) (string, interface{}) {
			if strings.TrimSpace(value) == "" {
				return "", nil
			}
			return key, value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("load process environment: %w", err)
		}
	}

	for name, value := range o.overrides {
		k.Set(name, value)
	}

	if o.flags != nil && len(o.flagVars) > 0 {
		provider := posflag.ProviderWithFlag(o.flags, delim, k, func(f *pflag.Flag) (string, interface{}) {
			name, ok := o.flagVars[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return name, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	return &Snapshot{k: k}, nil
}

// FromMap builds a snapshot holding exactly vars.
func FromMap(vars map[string]string) *Snapshot {
	k := koanf.New(delim)
	for name, value := range vars {
		k.Set(name, value)
	}
	return &Snapshot{k: k}
}

// With returns a copy of s with vars layered on top.
func (s *Snapshot) With(vars map[string]string) *Snapshot {
	k := s.k.Copy()
	for name, value := range vars {
		k.Set(name, value)
	}
	return &Snapshot{k: k}
}

// Lookup returns the trimmed value of name. Unset and blank values report false.
func (s *Snapshot) Lookup(name string) (string, bool) {
	if s == nil || s.k == nil || name == "" {
		return "", false
	}
	raw := s.k.Get(name)
	if raw == nil {
		return "", false
	}
	text := strings.TrimSpace(stringify(raw))
	if text == "" {
		return "", false
	}
	return text, true
}

// First returns the value of the first alias that is set and non-blank.
func (s *Snapshot) First(aliases ...string) (string, bool) {
	_, value, ok := s.FirstNamed(aliases...)
	return value, ok
}

// FirstNamed is First that also reports which alias supplied the value.
func (s *Snapshot) FirstNamed(aliases ...string) (string, string, bool) {
	for _, name := range aliases {
		if value, ok := s.Lookup(name); ok {
			return name, value, true
		}
	}
	return "", "", false
}

// Names lists the top-level variable names in the snapshot, sorted.
func (s *Snapshot) Names() []string {
	if s == nil || s.k == nil {
		return nil
	}
	raw := s.k.Raw()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// ParseAssignments parses NAME=VALUE pairs as given to --set.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: want NAME=VALUE", pair)
		}
		out[name] = value
	}
	return out, nil
}
