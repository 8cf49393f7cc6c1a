package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/harunnryd/lcaflow/internal/config"
	"github.com/harunnryd/lcaflow/internal/credential"
	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/formatter"
)

type settingsView struct {
	config.Settings `yaml:",inline"`
	Services        map[string]map[string]any `yaml:"services" json:"services"`
	Profile         config.WorkflowProfile    `yaml:"profile" json:"profile"`
}

func newSettingsView(s *config.Settings) settingsView {
	r := s.Redacted()
	return settingsView{Settings: *r, Services: r.ServiceMaps(), Profile: r.Profile()}
}

func (v settingsView) Table() formatter.Table {
	t := formatter.Table{Headers: []string{"Setting", "Value"}}
	add := func(k string, val any) {
		t.Rows = append(t.Rows, []string{k, fmt.Sprint(val)})
	}
	add("mcp_base_url", v.MCPBaseURL)
	add("mcp_transport", v.MCPTransport)
	add("flow_search_service_name", v.FlowSearchServiceName)
	add("flow_search_tool_name", v.FlowSearchToolName)
	add("request_timeout", v.RequestTimeout)
	add("max_retries", v.MaxRetries)
	add("log_level", v.LogLevel)
	add("workflow_profile", v.WorkflowProfile)
	add("max_concurrency", v.MaxConcurrency)
	add("cache_dir", v.CacheDir)
	add("artifacts_dir", v.ArtifactsDir)
	add("services", strings.Join(sortedKeys(v.Services), ", "))
	return t
}

type servicesView map[string]config.Connection

func (v servicesView) MarshalYAML() (any, error) {
	out := make(map[string]map[string]any, len(v))
	for name, conn := range v {
		out[name] = conn.AsMap()
	}
	return out, nil
}

func (v servicesView) Table() formatter.Table {
	t := formatter.Table{Headers: []string{"Name", "Transport", "Target"}}
	for _, name := range sortedKeys(v) {
		conn := v[name]
		target := ""
		switch {
		case conn.HTTP != nil:
			target = conn.HTTP.URL
		case conn.Stdio != nil:
			target = strings.Join(append([]string{conn.Stdio.Command}, conn.Stdio.Args...), " ")
		}
		t.Rows = append(t.Rows, []string{name, string(conn.Transport), target})
	}
	return t
}

type profileView config.WorkflowProfile

func (p profileView) Table() formatter.Table {
	return formatter.Table{
		Headers: []string{"Profile", "Concurrency", "Retry Attempts", "Cache Results"},
		Rows: [][]string{{
			p.Name,
			strconv.Itoa(p.Concurrency),
			strconv.Itoa(p.RetryAttempts),
			strconv.FormatBool(p.CacheResults),
		}},
	}
}

type checkResult struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type checkReport []checkResult

func (r checkReport) Table() formatter.Table {
	t := formatter.Table{Headers: []string{"Check", "Status", "Detail"}}
	for _, c := range r {
		t.Rows = append(t.Rows, []string{c.Name, c.Status, c.Detail})
	}
	return t
}

type envEntry struct {
	Group    string   `json:"group" yaml:"group"`
	Variable string   `json:"variable" yaml:"variable"`
	Aliases  []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Required bool     `json:"required" yaml:"required"`
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Default  string   `json:"default,omitempty" yaml:"default,omitempty"`
}

type envReport []envEntry

func newEnvReport(snap *environ.Snapshot, groups []config.Group) envReport {
	var out envReport
	for _, g := range groups {
		for _, f := range g.Fields {
			e := envEntry{
				Group:    g.Name,
				Variable: f.Env(),
				Aliases:  f.Aliases[1:],
				Required: f.Required,
				Default:  f.Default,
			}
			if name, v, ok := snap.FirstNamed(f.Aliases...); ok {
				e.Source = name
				e.Value = v
				if f.Kind == config.KindSecret {
					e.Value = credential.Mask(v)
				}
			}
			out = append(out, e)
		}
	}
	return out
}

func (r envReport) Table() formatter.Table {
	t := formatter.Table{Headers: []string{"Group", "Variable", "Source", "Value"}}
	for _, e := range r {
		value := e.Value
		if e.Source == "" {
			switch {
			case e.Required:
				value = "(required)"
			case e.Default != "":
				value = "(default " + e.Default + ")"
			}
		}
		t.Rows = append(t.Rows, []string{e.Group, e.Variable, e.Source, value})
	}
	return t
}

func renderTemplate(groups []config.Group) []byte {
	var b strings.Builder
	b.WriteString("# lcaflow environment\n")
	b.WriteString("# Required variables are uncommented; fill them in before running.\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n# --- %s ---\n", g.Name)
		for _, f := range g.Fields {
			if f.Help != "" {
				fmt.Fprintf(&b, "# %s\n", f.Help)
			}
			if len(f.Aliases) > 1 {
				fmt.Fprintf(&b, "# aliases: %s\n", strings.Join(f.Aliases[1:], ", "))
			}
			if f.Required {
				fmt.Fprintf(&b, "%s=\n", f.Env())
				continue
			}
			fmt.Fprintf(&b, "# %s=%s\n", f.Env(), f.Default)
		}
	}
	return []byte(b.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
