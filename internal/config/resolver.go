package config

import (
	"fmt"
	"log/slog"

	"github.com/harunnryd/lcaflow/internal/coerce"
	"github.com/harunnryd/lcaflow/internal/credential"
	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/errors"
	"github.com/harunnryd/lcaflow/internal/pathutil"
)

// resolver reads Field values from one snapshot. Scalars degrade to the
// field default; only require and json can fail.
type resolver struct {
	snap *environ.Snapshot
}

func newResolver(snap *environ.Snapshot) *resolver {
	if snap == nil {
		snap = environ.FromMap(nil)
	}
	return &resolver{snap: snap}
}

// optional returns the first non-blank alias value without applying the default.
func (r *resolver) optional(f Field) (string, bool) {
	name, value, ok := r.snap.FirstNamed(f.Aliases...)
	if ok {
		slog.Debug("Config value resolved", "field", f.Key, "env", name)
	}
	return value, ok
}

func (r *resolver) text(f Field) string {
	if value, ok := r.optional(f); ok {
		return value
	}
	return f.Default
}

func (r *resolver) require(f Field, detail string) (string, error) {
	if value, ok := r.optional(f); ok {
		return value, nil
	}
	return "", errors.Missing(f.Env(), detail)
}

func (r *resolver) path(f Field) (string, error) {
	raw := r.text(f)
	expanded, err := pathutil.Expand(raw, r.snap.Lookup)
	if err != nil {
		return "", &errors.ConfigError{Variable: f.Env(), Kind: errors.ErrInvalidConfig, Detail: "cannot expand path", Cause: err}
	}
	return expanded, nil
}

func (r *resolver) optFloat(f Field) (float64, bool) {
	raw, ok := r.optional(f)
	if !ok {
		return 0, false
	}
	v, ok := coerce.Float(raw)
	if !ok {
		slog.Debug("Ignoring unparsable number", "field", f.Key, "value", raw)
	}
	return v, ok
}

func (r *resolver) float(f Field) float64 {
	if v, ok := r.optFloat(f); ok {
		return v
	}
	v, _ := coerce.Float(f.Default)
	return v
}

func (r *resolver) integer(f Field) int {
	if raw, ok := r.optional(f); ok {
		if v, ok := coerce.Int(raw); ok {
			return v
		}
		slog.Debug("Ignoring unparsable integer", "field", f.Key, "value", raw)
	}
	v, _ := coerce.Int(f.Default)
	return v
}

func (r *resolver) optBool(f Field) (bool, bool) {
	raw, ok := r.optional(f)
	if !ok {
		return false, false
	}
	v, ok := coerce.OptionalBool(raw)
	if !ok {
		slog.Debug("Ignoring unrecognized boolean", "field", f.Key, "value", raw)
	}
	return v, ok
}

func (r *resolver) boolean(f Field) bool {
	if v, ok := r.optBool(f); ok {
		return v
	}
	return coerce.Bool(f.Default, false)
}

// json parses a structured override. Malformed input is fatal.
func (r *resolver) json(f Field) (any, bool, error) {
	name, raw, ok := r.snap.FirstNamed(f.Aliases...)
	if !ok {
		return nil, false, nil
	}
	v, ok, err := coerce.JSON(raw)
	if err != nil {
		return nil, false, &errors.ConfigError{
			Variable: name,
			Kind:     errors.ErrMalformedConfig,
			Detail:   "Invalid JSON",
			Cause:    err,
		}
	}
	return v, ok, nil
}

// secret resolves a credential and strips a leading scheme word.
func (r *resolver) secret(f Field, scheme string) (string, bool) {
	raw, ok := r.optional(f)
	if !ok {
		return "", false
	}
	return credential.SanitizeScheme(raw, scheme)
}

func missingDetail(service, field string) string {
	return fmt.Sprintf("%s %s missing", service, field)
}
