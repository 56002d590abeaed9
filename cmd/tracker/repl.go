package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ghuser/voyagewatch/services/event/application/tracker"
	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	run   func(r *repl, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"types":  {"types", "list the event types", (*repl).types},
		"filter": {"filter <ALL|TYPE>", "show only one event type", (*repl).filter},
		"list":   {"list", "print the visible events", (*repl).list},
		"arm":    {"arm", "start placing a new event", (*repl).arm},
		"place":  {"place <lat> <lng>", "set the draft position", (*repl).place},
		"set":    {"set <field> <value>", "edit a draft field", (*repl).set},
		"draft":  {"draft", "print the draft", (*repl).draft},
		"commit": {"commit", "validate and send the draft", (*repl).commit},
		"cancel": {"cancel", "discard the draft", (*repl).cancel},
		"status": {"status", "print connection and workflow state", (*repl).status},
		"help":   {"help", "print this help", (*repl).help},
		"quit":   {"quit", "leave the tracker", func(*repl, []string) error { return errQuit }},
	}
}

// repl executes tracker commands against a session.
type repl struct {
	s   *tracker.Session
	out io.Writer
}

func (r *repl) prompt() string {
	conn := "offline"
	if r.s.Connected() {
		conn = "online"
	}
	return fmt.Sprintf("[%s %s %s %d/%d]> ",
		r.s.Workflow().State(), conn, r.s.Category(), len(r.s.Visible()), r.s.Store().Len())
}

// watch writes a line to w each time the store grows, until ctx is done.
// Bursts of events are coalesced into one line.
func (r *repl) watch(ctx context.Context, w io.Writer) {
	seen := r.s.Store().Len()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.s.Changes():
		}
		n := r.s.Store().Len()
		if n > seen {
			fmt.Fprintf(w, "\n%d new event(s), %d/%d visible\n", n-seen, len(r.s.Visible()), n)
		}
		seen = n
	}
}

// exec runs one input line. It returns errQuit when the user asks to leave;
// any other error is a message for the user.
func (r *repl) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := commands[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
	return cmd.run(r, fields[1:])
}

// complete suggests command names and, after set or filter, their arguments.
func (r *repl) complete(line string) []string {
	fields := strings.Fields(line)
	var prefix string
	var options []string

	switch {
	case len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(line, " ")):
		for name := range commands {
			options = append(options, name)
		}
		if len(fields) == 1 {
			prefix = fields[0]
		}
		sort.Strings(options)
		var out []string
		for _, o := range options {
			if strings.HasPrefix(o, prefix) {
				out = append(out, o)
			}
		}
		return out
	case fields[0] == "filter":
		for _, c := range tracker.Categories() {
			options = append(options, string(c))
		}
	case fields[0] == "set":
		for _, f := range models.Fields() {
			options = append(options, string(f))
		}
	default:
		return nil
	}

	if len(fields) > 2 || (len(fields) == 2 && strings.HasSuffix(line, " ")) {
		return nil
	}
	if len(fields) == 2 {
		prefix = fields[1]
	}
	var out []string
	for _, o := range options {
		if strings.HasPrefix(strings.ToLower(o), strings.ToLower(prefix)) {
			out = append(out, fields[0]+" "+o)
		}
	}
	return out
}

func (r *repl) types([]string) error {
	for _, t := range models.EventTypes() {
		fmt.Fprintln(r.out, t)
	}
	return nil
}

func (r *repl) filter(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: filter <ALL|TYPE>")
	}
	c, err := tracker.ParseCategory(args[0])
	if err != nil {
		return err
	}
	r.s.SelectCategory(c)
	return nil
}

func (r *repl) list([]string) error {
	visible := r.s.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(r.out, "no events")
		return nil
	}
	for _, e := range visible {
		pvp := ""
		if e.IsPvP {
			pvp = " pvp"
		}
		fmt.Fprintf(r.out, "%s  %-15s %9.4f %10.4f  %s  %s%s\n",
			e.ID, e.Type, e.Latitude, e.Longitude, e.ReportedBy, e.ReportedAt.Format(time.RFC3339), pvp)
	}
	return nil
}

func (r *repl) arm([]string) error {
	r.s.Workflow().Arm()
	return nil
}

func (r *repl) place(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: place <lat> <lng>")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("latitude %q is not a number", args[0])
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("longitude %q is not a number", args[1])
	}
	if !r.s.Workflow().PlaceAt(lat, lng) {
		return errors.New("not placing, use arm first")
	}
	return nil
}

func (r *repl) set(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: set <field> <value>")
	}
	f, err := models.ParseField(args[0])
	if err != nil {
		return err
	}
	return r.s.Workflow().EditField(f, strings.Join(args[1:], " "))
}

func (r *repl) draft([]string) error {
	w := r.s.Workflow()
	if w.State() == tracker.Idle {
		return domain.ErrNotPlacing
	}
	d := w.Draft()
	pos := "not placed"
	if d.Position != nil {
		pos = fmt.Sprintf("%.4f, %.4f", d.Position.Latitude, d.Position.Longitude)
	}
	fmt.Fprintf(r.out, "position         %s\n", pos)
	fmt.Fprintf(r.out, "eventType        %s\n", d.EventType)
	fmt.Fprintf(r.out, "description      %s\n", d.Description)
	fmt.Fprintf(r.out, "reportedBy       %s\n", d.ReportedBy)
	fmt.Fprintf(r.out, "isPvP            %t\n", d.IsPvP)
	fmt.Fprintf(r.out, "confidence       %d\n", d.Confidence)
	fmt.Fprintf(r.out, "allianceId       %s\n", d.AllianceID)
	fmt.Fprintf(r.out, "serverRegion     %s\n", d.ServerRegion)
	fmt.Fprintf(r.out, "additionalNotes  %s\n", d.AdditionalNotes)
	return nil
}

func (r *repl) commit([]string) error {
	e, err := r.s.Workflow().Commit()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "reported %s %s\n", e.Type, e.ID)
	if !r.s.Connected() {
		fmt.Fprintln(r.out, "offline: the event is only on this map")
	}
	return nil
}

func (r *repl) cancel([]string) error {
	r.s.Workflow().Cancel()
	return nil
}

func (r *repl) status([]string) error {
	conn := "disconnected"
	if r.s.Connected() {
		conn = "connected"
	}
	w := r.s.Workflow()
	fmt.Fprintf(r.out, "relay      %s\n", conn)
	fmt.Fprintf(r.out, "workflow   %s (commit %s)\n", w.State(), map[bool]string{true: "enabled", false: "disabled"}[w.CanCommit()])
	fmt.Fprintf(r.out, "filter     %s\n", r.s.Category())
	fmt.Fprintf(r.out, "events     %d visible, %d total\n", len(r.s.Visible()), r.s.Store().Len())
	return nil
}

func (r *repl) help([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(r.out, "  %-22s %s\n", c.usage, c.help)
	}
	return nil
}
