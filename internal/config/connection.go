package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/shlex"

	"github.com/harunnryd/lcaflow/internal/coerce"
	"github.com/harunnryd/lcaflow/internal/credential"
)

// Transport names an MCP client transport.
type Transport string

const (
	TransportStreamableHTTP Transport = "streamable_http"
	TransportSSE            Transport = "sse"
	TransportWebsocket      Transport = "websocket"
	TransportStdio          Transport = "stdio"
)

// IsHTTP reports whether t connects to a URL.
func (t Transport) IsHTTP() bool {
	switch t {
	case TransportStreamableHTTP, TransportSSE, TransportWebsocket:
		return true
	default:
		return false
	}
}

// HTTPEndpoint is the payload of URL based transports. Timeout is in seconds;
// zero means unset.
type HTTPEndpoint struct {
	URL     string
	Headers map[string]string
	Timeout float64
}

// StdioCommand is the payload of the stdio transport.
type StdioCommand struct {
	Command string
	Args    []string
	Env     map[string]string
	Cwd     string
}

// Connection is one named MCP service block. Exactly one of HTTP and Stdio is
// set for known transports; for unknown transports both are nil and the
// whole block lives in Extra. Extra always carries fields this package does
// not model.
type Connection struct {
	Transport Transport
	HTTP      *HTTPEndpoint
	Stdio     *StdioCommand
	Extra     map[string]any
}

// NewHTTPConnection builds a URL based connection. Empty headers and
// non-positive timeouts are dropped.
func NewHTTPConnection(transport Transport, url string, headers map[string]string, timeout float64) Connection {
	ep := &HTTPEndpoint{URL: url}
	if len(headers) > 0 {
		ep.Headers = maps.Clone(headers)
	}
	if timeout > 0 {
		ep.Timeout = timeout
	}
	return Connection{Transport: transport, HTTP: ep}
}

type httpBlock struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout any               `mapstructure:"timeout"`
	Extra   map[string]any    `mapstructure:",remain"`
}

type stdioBlock struct {
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
	Cwd     string            `mapstructure:"cwd"`
	Extra   map[string]any    `mapstructure:",remain"`
}

// DecodeConnection converts a JSON object into a Connection. A block without
// a transport is treated as stdio when it names a command and as
// streamable_http otherwise.
func DecodeConnection(raw map[string]any) (Connection, error) {
	body := maps.Clone(raw)
	transport := TransportStreamableHTTP
	if v, ok := body["transport"]; ok && v != nil {
		transport = Transport(strings.ToLower(strings.TrimSpace(fmt.Sprint(v))))
	} else if _, hasCommand := body["command"]; hasCommand {
		transport = TransportStdio
	}
	delete(body, "transport")

	conn := Connection{Transport: transport}
	switch {
	case transport.IsHTTP():
		var block httpBlock
		if err := decodeWeak(body, &block); err != nil {
			return Connection{}, err
		}
		timeout, _ := coerce.Float(block.Timeout)
		conn = NewHTTPConnection(transport, strings.TrimSpace(block.URL), block.Headers, timeout)
		conn.Extra = nonEmpty(block.Extra)
	case transport == TransportStdio:
		var block stdioBlock
		if err := decodeWeak(body, &block); err != nil {
			return Connection{}, err
		}
		cmd := &StdioCommand{
			Command: strings.TrimSpace(block.Command),
			Args:    block.Args,
			Env:     block.Env,
			Cwd:     block.Cwd,
		}
		if len(cmd.Args) == 0 && strings.ContainsAny(cmd.Command, " \t") {
			words, err := shlex.Split(cmd.Command)
			if err != nil {
				return Connection{}, fmt.Errorf("split command: %w", err)
			}
			if len(words) > 0 {
				cmd.Command, cmd.Args = words[0], words[1:]
			}
		}
		conn.Stdio = cmd
		conn.Extra = nonEmpty(block.Extra)
	default:
		conn.Extra = nonEmpty(body)
	}

	if err := conn.Validate(); err != nil {
		return Connection{}, err
	}
	return conn, nil
}

func decodeWeak(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func nonEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// Validate checks the block has what its transport needs.
func (c Connection) Validate() error {
	switch {
	case c.Transport == "":
		return fmt.Errorf("transport is empty")
	case c.Transport.IsHTTP():
		if c.HTTP == nil || c.HTTP.URL == "" {
			return fmt.Errorf("%s connection requires url", c.Transport)
		}
	case c.Transport == TransportStdio:
		if c.Stdio == nil || c.Stdio.Command == "" {
			return fmt.Errorf("stdio connection requires command")
		}
	}
	return nil
}

// Clone returns a copy that shares no maps or slices with c.
func (c Connection) Clone() Connection {
	out := Connection{Transport: c.Transport, Extra: maps.Clone(c.Extra)}
	if c.HTTP != nil {
		ep := *c.HTTP
		ep.Headers = maps.Clone(c.HTTP.Headers)
		out.HTTP = &ep
	}
	if c.Stdio != nil {
		cmd := *c.Stdio
		cmd.Args = slices.Clone(c.Stdio.Args)
		cmd.Env = maps.Clone(c.Stdio.Env)
		out.Stdio = &cmd
	}
	return out
}

// AsMap flattens the connection into the shape MCP clients expect. Modelled
// fields win over Extra keys of the same name.
func (c Connection) AsMap() map[string]any {
	out := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["transport"] = string(c.Transport)
	if ep := c.HTTP; ep != nil {
		out["url"] = ep.URL
		if len(ep.Headers) > 0 {
			out["headers"] = maps.Clone(ep.Headers)
		}
		if ep.Timeout > 0 {
			out["timeout"] = ep.Timeout
		}
	}
	if cmd := c.Stdio; cmd != nil {
		out["command"] = cmd.Command
		if len(cmd.Args) > 0 {
			out["args"] = slices.Clone(cmd.Args)
		}
		if len(cmd.Env) > 0 {
			out["env"] = maps.Clone(cmd.Env)
		}
		if cmd.Cwd != "" {
			out["cwd"] = cmd.Cwd
		}
	}
	return out
}

// MarshalJSON encodes the flattened form.
func (c Connection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.AsMap())
}

// UnmarshalJSON decodes a flattened block.
func (c *Connection) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	conn, err := DecodeConnection(raw)
	if err != nil {
		return err
	}
	*c = conn
	return nil
}

// Redacted returns a copy with header and env values masked.
func (c Connection) Redacted() Connection {
	out := c.Clone()
	if out.HTTP != nil {
		for k, v := range out.HTTP.Headers {
			out.HTTP.Headers[k] = credential.Mask(v)
		}
	}
	if out.Stdio != nil {
		for k, v := range out.Stdio.Env {
			out.Stdio.Env[k] = credential.Mask(v)
		}
	}
	return out
}
