package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"partywire/boundary"
	"partywire/directory"
	"partywire/middleware"
	"partywire/protocol"
	"partywire/session"
)

// ReplayCmd drives a session from a script of JSON lines, one step per line:
//
//	{"op":"join"}
//	{"op":"controller","id":0,"value":{"Move":{"x":1,"y":2}}}
//	{"op":"game","value":{"id":0,"event":"Event1"}}
//	{"op":"leave","id":0}
//
// Every frame the session produces is printed as "<dest> hex". Rejected
// steps are printed as "reject <line>: <error>" and the replay continues.
type ReplayCmd struct {
	Script  string `arg:"" optional:"" help:"Script file. Read from stdin when omitted or -."`
	Session string `help:"Session identifier. Random when empty."`
}

type step struct {
	Op    string          `json:"op"`
	ID    *uint16         `json:"id"`
	Value json.RawMessage `json:"value"`
}

func (c *ReplayCmd) Run(e *env) error {
	in := e.in
	if c.Script != "" && c.Script != "-" {
		f, err := os.Open(c.Script)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)
	s, err := e.cfg.NewSession(c.Session, e.logger, metrics)
	if err != nil {
		return err
	}

	dir, err := e.cfg.OpenDirectory(e.logger)
	if err != nil {
		return err
	}
	r := &replayer{env: e, session: s, dir: dir}

	announce, err := s.Announce()
	if err != nil {
		return err
	}
	r.emit("game", announce)
	if err := r.publish(); err != nil {
		return err
	}
	defer dir.Remove(e.ctx, s.ID())

	scanner := bufio.NewScanner(in)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := r.step([]byte(text)); err != nil {
			fmt.Fprintf(e.out, "reject %d: %v\n", line, err)
		}
		if err := e.ctx.Err(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	st, err := dir.Snapshot(e.ctx)
	if err != nil {
		return err
	}
	if err := printStatistics(e.out, st); err != nil {
		return err
	}
	e.logger.Debug("replay finished",
		"session", s.ID(),
		"frames", gatheredFrames(reg),
	)
	return nil
}

type replayer struct {
	*env
	session *session.Session
	dir     directory.Directory
}

func (r *replayer) emit(dest string, frame []byte) {
	fmt.Fprintf(r.out, "%s %s\n", dest, hex.EncodeToString(frame))
}

func (r *replayer) publish() error {
	return r.dir.Publish(r.ctx, r.session.ID(), r.session.Snapshot())
}

func (r *replayer) step(line []byte) error {
	var st step
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		return fmt.Errorf("parse step: %w", err)
	}

	switch st.Op {
	case "join":
		id, toGame, toController, err := r.session.Join()
		if err != nil {
			return err
		}
		r.emit("game", toGame)
		r.emit(fmt.Sprintf("controller %d", id), toController)
		return r.publish()

	case "leave":
		if st.ID == nil {
			return fmt.Errorf("leave needs an id")
		}
		frame, err := r.session.Leave(*st.ID)
		if err != nil {
			return err
		}
		r.emit("game", frame)
		return r.publish()

	case "controller":
		if st.ID == nil {
			return fmt.Errorf("controller needs an id")
		}
		dyn, err := dynamic(st.Value)
		if err != nil {
			return err
		}
		payload, err := boundary.ControllerCommandToBytes(dyn)
		if err != nil {
			return err
		}
		frame, err := r.session.HandleController(r.ctx, *st.ID, payload)
		if err != nil {
			return err
		}
		r.emit("game", frame)
		return nil

	case "game":
		dyn, err := dynamic(st.Value)
		if err != nil {
			return err
		}
		payload, err := boundary.EncodeNamed(protocol.TypeGameMessage, dyn)
		if err != nil {
			return err
		}
		id, frame, err := r.session.HandleGame(payload)
		if err != nil {
			return err
		}
		r.emit(fmt.Sprintf("controller %d", id), frame)
		return nil
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

func dynamic(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("step needs a value")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// gatheredFrames sums the frame counter across outcomes.
func gatheredFrames(reg prometheus.Gatherer) float64 {
	families, err := reg.Gather()
	if err != nil {
		return 0
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "partywire_controller_frames_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
