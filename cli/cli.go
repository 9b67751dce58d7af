// Package cli provides terminal I/O, output formatting, and command
// dispatch for headless PlanetCore runs.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/selka/planetcore/engine"
	"github.com/selka/planetcore/engine/save"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

// CLI handles terminal interaction with the operator.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) *CLI {
	home, _ := os.UserHomeDir()
	saveDir := filepath.Join(home, ".planetcore", "saves")
	return &CLI{
		Engine:  eng,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
	}
}

// Run starts the command loop: prompt, input, dispatch, output.
func (c *CLI) Run() {
	c.printLine(fmt.Sprintf("%s v%s", c.Defs.World.Name, c.Defs.World.Version))
	c.cmdStatus()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// "again" / "g" repeats the last command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if !strings.HasPrefix(input, "/") {
			c.lastCmd = input
		}

		if c.Exec(input) {
			return // /quit
		}
	}
}

// Exec runs a single input line, meta-command or simulation command,
// writing output to c.Out. Returns true when the caller should exit.
// The TUI front-end drives the same command set through this entry point.
func (c *CLI) Exec(input string) bool {
	if strings.HasPrefix(input, "/") {
		return c.handleMeta(input)
	}
	c.dispatch(input)
	return false
}

// dispatch runs one simulation command.
func (c *CLI) dispatch(input string) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "step", "month", "m":
		c.printResults([]engine.TickResult{c.Engine.StepMonth()})

	case "year", "y":
		n := 1
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				c.printLine(fmt.Sprintf("Not a year count: %q", args[0]))
				return
			}
			n = v
		}
		for i := 0; i < n; i++ {
			c.printResults(c.Engine.StepYear())
		}

	case "status", "st":
		c.cmdStatus()

	case "regions":
		c.cmdRegions()

	case "projects":
		c.cmdProjects()

	case "processes":
		c.cmdProcesses()

	case "events":
		c.cmdEvents()

	case "log":
		for _, line := range c.Engine.State.EventLog {
			c.printLine(line)
		}

	case "start", "halt", "stall", "resume":
		if len(args) == 0 {
			c.printLine(fmt.Sprintf("Usage: %s <project>", cmd))
			return
		}
		c.cmdProject(cmd, args[0])

	case "mix":
		if len(args) != 2 {
			c.printLine("Usage: mix <process> <share>")
			return
		}
		share, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			c.printLine(fmt.Sprintf("Not a share: %q", args[1]))
			return
		}
		if err := c.Engine.SetProcessMixShare(args[0], share); err != nil {
			c.printLine(err.Error())
			return
		}
		c.printLine(fmt.Sprintf("Mix share of %s set to %g.", args[0], share))

	default:
		c.printLine(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
}

// handleMeta dispatches meta-commands. Returns true if the loop should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/diag":
		diags := c.Engine.Diagnostics()
		if len(diags) == 0 {
			c.printSystem("No diagnostics.")
		}
		for _, d := range diags {
			c.printSystem(d)
		}

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Engine.State, c.Defs, c.Engine.Pool.ArmedIDs(), c.Engine.Pool.Queue())
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Run saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	save.ApplySave(c.Engine.State, sd)
	c.Engine.RNG = engine.RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	c.Engine.Pool.Restore(sd.ArmedEvents, sd.EventQueue)
	c.Engine.Pool.Advance(sd.Tick)
	c.printSystem(fmt.Sprintf("Run loaded from %s (tick %d).", name, sd.Tick))
	c.cmdStatus()
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  Save run (default: quicksave)",
		"  /load [name]  Load run (default: quicksave)",
		"  /quit         Exit",
		"  /help         Show this help",
		"  /diag         Show evaluation diagnostics",
		"  /trace        Toggle per-step trace output",
		"",
		"Simulation commands:",
		"  step (m)             Advance one month",
		"  year [n] (y)         Advance n years (default 1)",
		"  status (st)          Show world summary",
		"  regions              List regions",
		"  projects             List projects and their status",
		"  processes            List production processes",
		"  events               List event pool state",
		"  log                  Show the event log",
		"  start <project>      Start a project",
		"  halt <project>       Halt an active or stalled project",
		"  stall <project>      Stall an active project",
		"  resume <project>     Resume a stalled project",
		"  mix <process> <x>    Set a process mix share (0 to 1)",
		"  again (g)            Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdStatus() {
	s := c.Engine.State
	month := (s.Tick-1)%12 + 1
	if s.Tick == 0 {
		month = 0
	}
	c.printSystem(fmt.Sprintf("Year %d, month %d (tick %d, run %d)",
		s.Year, month, s.Tick, s.RunsPlayed))
	for _, name := range []string{"Temperature", "Emissions", "Outlook", "ExtinctionRate"} {
		if v, ok := s.Scalars[name]; ok {
			c.printSystem(fmt.Sprintf("%s: %.2f", name, v))
		}
	}
	if v, ok := s.Player["PoliticalCapital"]; ok {
		c.printSystem(fmt.Sprintf("PoliticalCapital: %.0f", v))
	}
}

func (c *CLI) cmdRegions() {
	for _, id := range sortedKeys(c.Defs.Regions) {
		rs := c.Engine.State.Regions[id]
		line := fmt.Sprintf("%-20s outlook %.1f  habitability %.1f  population %.1f",
			id, rs.Scalars["Outlook"], rs.Scalars["Habitability"], rs.Scalars["Population"])
		if rs.Left {
			line += "  (left)"
		}
		c.printLine(line)
	}
}

func (c *CLI) cmdProjects() {
	for _, id := range sortedKeys(c.Defs.Projects) {
		s := c.Engine.State
		status := s.Projects[id]
		line := fmt.Sprintf("%-30s %s", id, status)
		if s.ProjectLocked[id] {
			line += "  (locked)"
		}
		if status == types.StatusActive {
			line += fmt.Sprintf("  %d months left", s.ProjectMonths[id])
		}
		c.printLine(line)
	}
}

func (c *CLI) cmdProcesses() {
	for _, id := range sortedKeys(c.Defs.Processes) {
		def := c.Defs.Processes[id]
		ps := c.Engine.State.Processes[id]
		line := fmt.Sprintf("%-20s %-15s mix %.2f  output mod %.2f", id, def.Output, ps.MixShare, ps.OutputMod)
		if ps.Locked {
			line += "  (locked)"
		}
		c.printLine(line)
	}
}

func (c *CLI) cmdEvents() {
	for _, id := range c.Defs.EventOrder {
		line := fmt.Sprintf("%-30s %s", id, "disarmed")
		if c.Engine.Pool.Armed(id) {
			line = fmt.Sprintf("%-30s armed", id)
		}
		c.printLine(line)
	}
	for _, sched := range c.Engine.Pool.Queue() {
		c.printLine(fmt.Sprintf("%-30s queued for tick %d", sched.EventID, sched.DueTick))
	}
}

func (c *CLI) cmdProject(cmd, id string) {
	var err error
	switch cmd {
	case "start":
		err = c.Engine.StartProject(id)
	case "halt":
		err = c.Engine.HaltProject(id)
	case "stall":
		err = c.Engine.StallProject(id)
	case "resume":
		err = c.Engine.ResumeProject(id)
	}
	if err != nil {
		c.printLine(err.Error())
		return
	}
	c.printLine(fmt.Sprintf("Project %s: %s.", id, c.Engine.State.Projects[id]))
}

func (c *CLI) printResults(results []engine.TickResult) {
	for _, r := range results {
		for _, ev := range r.Fired {
			name := ev.Name
			if name == "" {
				name = ev.ID
			}
			c.printLine(fmt.Sprintf("[%d-%02d] %s", r.Year, r.Month, name))
		}
		if c.Trace {
			c.printTrace(r)
		}
	}
}

func (c *CLI) printTrace(r engine.TickResult) {
	c.printSystem(fmt.Sprintf("[trace] %d-%02d: %d event(s) fired", r.Year, r.Month, len(r.Fired)))
	for _, ev := range r.Fired {
		for _, e := range ev.Effects {
			c.printSystem(fmt.Sprintf("[trace]   %s %s %v", e.Kind, e.Subject, e.Params))
		}
	}
	for _, d := range r.Diagnostics {
		c.printSystem(fmt.Sprintf("[trace]   %s", d))
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
