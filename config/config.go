// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package config parses the chain configuration the supervisor consumes: a
// YAML document naming a set of handlers, a set of chains wiring them
// together, and the shared settings every handler in an instance inherits.
//
// The document has a "settings" block, a "chain" block of named chains, and
// "protocolhandler"/"filterhandler"/"transporthandler" blocks of named
// handlers. A handler's name is its map key rather than a separate field.
package config

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// Settings holds the instance-wide configuration shared by every handler in
// a chain: identity, the local rendezvous directory, and the collector
// endpoints for logs and statistics.
type Settings struct {
	Instance                      string            `yaml:"instance"`
	Network                       string            `yaml:"network"`
	Path                          string            `yaml:"path"`
	SyslogHost                    string            `yaml:"syslog_host"`
	SyslogPort                    int               `yaml:"syslog_port"`
	LogLevel                      string            `yaml:"log_level"`
	StatsMultiplexerListeningPort int               `yaml:"stats_multiplexer_listening_port"`
	StatsServers                  []string          `yaml:"stats_servers"`
	RingCapacity                  datasize.ByteSize `yaml:"ring_capacity"`
}

// Chain names one protocol handler, zero or more filter handlers (applied in
// order between the protocol handler and the transport handler), and one
// transport handler.
type Chain struct {
	ProtocolHandler  string   `yaml:"protocol_handler"`
	FilterHandlers   []string `yaml:"filter_handlers"`
	TransportHandler string   `yaml:"transport_handler"`
}

// Handler carries a handler's executable type plus an open-ended bag of
// string arguments forwarded to the spawned process as "--key value". Type
// and OpenUDPPort have dedicated fields; everything else falls into Args
// via yaml.v3's inline-map support.
type Handler struct {
	Type        string            `yaml:"type"`
	OpenUDPPort string            `yaml:"open_udp_port"`
	Args        map[string]string `yaml:",inline"`
}

// Document is the full parsed configuration.
type Document struct {
	Settings          Settings           `yaml:"settings"`
	Chains            map[string]Chain   `yaml:"chain"`
	ProtocolHandlers  map[string]Handler `yaml:"protocolhandler"`
	FilterHandlers    map[string]Handler `yaml:"filterhandler"`
	TransportHandlers map[string]Handler `yaml:"transporthandler"`
}

// HandlerKind identifies which of the three handler blocks a name resolved
// against, used to choose the CLI socket-flag shape (single socket_path vs.
// socket_path_in/socket_path_out). It does not enter the statsd prefix.
type HandlerKind string

const (
	KindProtocolHandler  HandlerKind = "ph"
	KindFilterHandler    HandlerKind = "filter"
	KindTransportHandler HandlerKind = "transport"
)

// DefaultConfig returns the baseline configuration every Load starts from,
// matching the DefaultConfig()-then-Unmarshal idiom this repository's
// configuration stack follows throughout.
func DefaultConfig() *Document {
	return &Document{
		Settings: Settings{
			Path:                          "/tmp/osdiode",
			LogLevel:                      "info",
			StatsMultiplexerListeningPort: 8125,
			RingCapacity:                  1 * datasize.MB,
		},
		Chains:            map[string]Chain{},
		ProtocolHandlers:  map[string]Handler{},
		FilterHandlers:    map[string]Handler{},
		TransportHandlers: map[string]Handler{},
	}
}

// Load reads and parses the YAML document at path over DefaultConfig, then
// validates every chain's handler references.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	doc := DefaultConfig()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Lookup finds a handler by name across all three handler blocks; a
// handler's role is not presupposed from the chain definition alone.
func (d *Document) Lookup(name string) (Handler, HandlerKind, bool) {
	if h, ok := d.ProtocolHandlers[name]; ok {
		return h, KindProtocolHandler, true
	}
	if h, ok := d.FilterHandlers[name]; ok {
		return h, KindFilterHandler, true
	}
	if h, ok := d.TransportHandlers[name]; ok {
		return h, KindTransportHandler, true
	}
	return Handler{}, "", false
}

// Validate checks that every chain's protocol/filter/transport handler
// names resolve to a declared handler, so a misconfiguration is caught
// before the supervisor spawns anything.
func (d *Document) Validate() error {
	if d.Settings.Instance == "" {
		return fmt.Errorf("config: settings.instance is required")
	}
	for chainName, chain := range d.Chains {
		names := chainHandlerNames(chain)
		for _, name := range names {
			if _, _, ok := d.Lookup(name); !ok {
				return fmt.Errorf("config: chain %s: handler %q is not declared", chainName, name)
			}
		}
	}
	return nil
}

// chainHandlerNames returns a chain's handler names in pipeline order:
// protocol handler, then filters in order, then the transport handler.
func chainHandlerNames(c Chain) []string {
	names := make([]string, 0, 2+len(c.FilterHandlers))
	names = append(names, c.ProtocolHandler)
	names = append(names, c.FilterHandlers...)
	names = append(names, c.TransportHandler)
	return names
}
