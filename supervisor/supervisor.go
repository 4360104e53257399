// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package supervisor turns a parsed chain configuration into a set of
// runnable handler processes: it assigns a local-stream rendezvous path to
// every adjacent pair of handlers in a chain, builds one *exec.Cmd per
// handler with the shared and handler-specific CLI flags, and starts them.
//
// Handlers are plain subprocesses of the supervisor binary; wrapping them
// in containers is a deployment detail left to the operator. The supervisor
// does not monitor or restart children either — that is the operator's
// process supervisor's job.
package supervisor

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/opendiode/godiode/config"
)

// sockets records the rendezvous paths assigned to one handler: the path it
// reads from (In) and/or writes to (Out). A protocol handler has only Out, a
// transport handler only In, a filter has both.
type sockets struct {
	In, Out string
}

// Handler pairs a built command with the human-readable name used for
// logging and process identification.
type Handler struct {
	Cmd  *exec.Cmd
	Name string
}

// Plan is the ordered set of commands to start for every chain in a
// configuration.
type Plan struct {
	Handlers []Handler
}

// Build assigns sockets and constructs commands for every chain in doc. It
// does not start anything.
func Build(doc *config.Document) (*Plan, error) {
	plan := &Plan{}

	chainNames := make([]string, 0, len(doc.Chains))
	for name := range doc.Chains {
		chainNames = append(chainNames, name)
	}
	sort.Strings(chainNames)

	for _, chainName := range chainNames {
		chain := doc.Chains[chainName]
		names := append([]string{chain.ProtocolHandler}, chain.FilterHandlers...)
		names = append(names, chain.TransportHandler)

		assigned := make(map[string]*sockets, len(names))
		for _, n := range names {
			assigned[n] = &sockets{}
		}
		for i := 0; i+1 < len(names); i++ {
			producer, consumer := names[i], names[i+1]
			path := filepath.Join(doc.Settings.Path, fmt.Sprintf("%s_%s_%s", chainName, producer, consumer))
			assigned[producer].Out = path
			assigned[consumer].In = path
		}

		for _, name := range names {
			handler, kind, ok := doc.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("supervisor: chain %s: handler %q not declared", chainName, name)
			}
			processName := fmt.Sprintf("%s.%s.%s.%s", doc.Settings.Instance, doc.Settings.Network, chainName, name)
			cmd, err := buildCommand(handler, kind, assigned[name], processName, &doc.Settings)
			if err != nil {
				return nil, fmt.Errorf("supervisor: chain %s: %w", chainName, err)
			}
			plan.Handlers = append(plan.Handlers, Handler{Cmd: cmd, Name: processName})
		}
	}
	return plan, nil
}

// buildCommand constructs the exec.Cmd for a single handler: its executable
// (handler.Type), the socket flags appropriate to its kind, the handler's
// own forwarded arguments, and the shared settings every handler binary
// accepts.
func buildCommand(h config.Handler, kind config.HandlerKind, sock *sockets, processName string, s *config.Settings) (*exec.Cmd, error) {
	var args []string

	switch kind {
	case config.KindFilterHandler:
		if sock.In == "" || sock.Out == "" {
			return nil, fmt.Errorf("filter handler must have both an inbound and outbound socket")
		}
		args = append(args, "--socket_path_in", sock.In, "--socket_path_out", sock.Out)
	default:
		path := sock.In
		if path == "" {
			path = sock.Out
		}
		if path == "" {
			return nil, fmt.Errorf("handler has no adjacent socket assigned")
		}
		args = append(args, "--socket_path", path)
	}

	if h.OpenUDPPort != "" {
		args = append(args, "--udp-listen", ":"+h.OpenUDPPort)
	}

	argNames := make([]string, 0, len(h.Args))
	for k := range h.Args {
		argNames = append(argNames, k)
	}
	sort.Strings(argNames)
	for _, k := range argNames {
		args = append(args, "--"+k, h.Args[k])
	}

	args = append(args,
		"--stats-addr", fmt.Sprintf("127.0.0.1:%d", s.StatsMultiplexerListeningPort),
		"--syslog-addr", s.SyslogHost+":"+strconv.Itoa(s.SyslogPort),
		"--log-level", s.LogLevel,
		"--name", processName,
	)

	return exec.Command(h.Type, args...), nil
}

// Start launches every handler in the plan as a detached subprocess and
// returns immediately; it does not wait on or monitor them.
func (p *Plan) Start() error {
	for _, handler := range p.Handlers {
		if err := handler.Cmd.Start(); err != nil {
			return fmt.Errorf("supervisor: start %s: %w", handler.Name, err)
		}
	}
	return nil
}
