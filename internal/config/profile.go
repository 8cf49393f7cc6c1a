package config

import (
	"math"
	"strings"
)

// Workflow profile names.
const (
	ProfileDefault = "default"
	ProfileBatch   = "batch"
	ProfileDebug   = "debug"
)

const (
	defaultProfileConcurrencyCap = 4
	batchExtraRetries            = 2
)

// WorkflowProfile is the execution policy derived from a profile name.
type WorkflowProfile struct {
	Name          string `json:"profile_name" yaml:"profile_name"`
	Concurrency   int    `json:"concurrency" yaml:"concurrency"`
	RetryAttempts int    `json:"retry_attempts" yaml:"retry_attempts"`
	CacheResults  bool   `json:"cache_results" yaml:"cache_results"`
}

// DeriveProfile maps a profile name onto limits. Unrecognized names get the
// default profile. Concurrency is at least 1 and retries at least 0.
func DeriveProfile(name string, maxConcurrency, maxRetries int) WorkflowProfile {
	var p WorkflowProfile
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProfileBatch:
		p = WorkflowProfile{Name: ProfileBatch, Concurrency: maxConcurrency, RetryAttempts: saturatingAdd(maxRetries, batchExtraRetries), CacheResults: true}
	case ProfileDebug:
		p = WorkflowProfile{Name: ProfileDebug, Concurrency: 1, RetryAttempts: 1, CacheResults: false}
	default:
		p = WorkflowProfile{Name: ProfileDefault, Concurrency: min(maxConcurrency, defaultProfileConcurrencyCap), RetryAttempts: maxRetries, CacheResults: true}
	}
	p.Concurrency = max(p.Concurrency, 1)
	p.RetryAttempts = max(p.RetryAttempts, 0)
	return p
}

func saturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
