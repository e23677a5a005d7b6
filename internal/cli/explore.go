package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/implicit"
	"github.com/loci-dev/loci/pkg/locus"
)

// exploreCommand creates the explore command: an interactive terminal
// view of a construction where free points can be dragged and locus
// curves recomputed live.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "explore <file>",
		Short: "Explore a construction interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cons, err := construction.ReadFile(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			model := newExploreModel(cons, runner, implicit.BoundingBox{
				MinX: -10, MinY: -10, MaxX: 10, MaxY: 10,
			})
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cache")
	return cmd
}

// =============================================================================
// ExploreModel - Interactive construction explorer
// =============================================================================

// locusMsg carries one finished locus refresh back into the update loop.
type locusMsg struct {
	target construction.ID
	result *locus.Result
	err    error
}

// ExploreModel is the bubbletea model for interactive exploration.
type ExploreModel struct {
	cons     *construction.Construction
	runner   *locus.Runner
	viewport implicit.BoundingBox

	ids      []construction.ID
	cursor   int
	step     float64
	status   string
	pending  int
	quitting bool
}

// newExploreModel creates an explorer over a construction.
func newExploreModel(cons *construction.Construction, runner *locus.Runner, viewport implicit.BoundingBox) *ExploreModel {
	m := &ExploreModel{
		cons:     cons,
		runner:   runner,
		viewport: viewport,
		step:     0.5,
		status:   "ready",
	}
	m.reindex()
	return m
}

// reindex rebuilds the element id list after structural changes.
func (m *ExploreModel) reindex() {
	m.ids = m.ids[:0]
	m.cons.Elements(func(e *construction.Element) {
		m.ids = append(m.ids, e.ID())
	})
	if m.cursor >= len(m.ids) {
		m.cursor = len(m.ids) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *ExploreModel) Init() tea.Cmd {
	return nil
}

func (m *ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case locusMsg:
		m.pending--
		switch {
		case msg.err != nil:
			m.status = fmt.Sprintf("locus %d failed: %s", msg.target, errors.UserMessage(msg.err))
		case msg.result.Stale:
			m.status = fmt.Sprintf("locus %d stale: %s", msg.target, errors.UserMessage(msg.result.Err))
		case msg.result.Coalesced:
			m.status = fmt.Sprintf("locus %d refresh coalesced", msg.target)
		default:
			m.status = fmt.Sprintf("locus %d: %d branches, %d points",
				msg.target, len(msg.result.Curve.Branches), msg.result.Curve.Points())
		}
	}
	return m, nil
}

func (m *ExploreModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.ids)-1 {
			m.cursor++
		}
	case "w":
		m.drag(0, m.step)
	case "s":
		m.drag(0, -m.step)
	case "a":
		m.drag(-m.step, 0)
	case "d":
		m.drag(m.step, 0)
	case "+", "=":
		m.step *= 2
	case "-":
		if m.step > 1.0/64 {
			m.step /= 2
		}
	case "r", "enter":
		return m, m.refreshSelected()
	}
	return m, nil
}

// drag moves the selected free point and propagates the change. The
// runner reads the construction during a refresh, so dragging waits for
// in-flight refreshes.
func (m *ExploreModel) drag(dx, dy float64) {
	if len(m.ids) == 0 {
		return
	}
	if m.pending > 0 {
		m.status = "refresh in flight, wait for it to finish"
		return
	}
	id := m.ids[m.cursor]
	e, err := m.cons.Element(id)
	if err != nil || !e.IsFree() {
		m.status = "only free points can be dragged"
		return
	}
	p := e.Pos()
	updated, err := m.cons.Move(id, p.X+dx, p.Y+dy)
	if err != nil {
		m.status = errors.UserMessage(err)
		return
	}
	m.status = fmt.Sprintf("moved %d to (%g, %g), %d updated", id, p.X+dx, p.Y+dy, updated)
}

// refreshSelected kicks off a locus refresh for the selected element.
func (m *ExploreModel) refreshSelected() tea.Cmd {
	if len(m.ids) == 0 {
		return nil
	}
	id := m.ids[m.cursor]
	e, err := m.cons.Element(id)
	if err != nil {
		return nil
	}
	target := id
	if e.Kind() == construction.KindLocus {
		target = e.Parents()[0]
	} else if e.IsFree() || !e.Kind().IsPoint() {
		m.status = "select a dependent point or locus element"
		return nil
	}

	m.pending++
	m.status = fmt.Sprintf("computing locus of %d...", target)
	cons, runner, viewport := m.cons, m.runner, m.viewport
	return func() tea.Msg {
		res, err := runner.Refresh(context.Background(), cons, target, viewport)
		return locusMsg{target: target, result: res, err: err}
	}
}

func (m *ExploreModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Construction Explorer"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ select  w/a/s/d drag  +/- step  r locus  q quit"))
	b.WriteString("\n\n")

	for i, id := range m.ids {
		e, err := m.cons.Element(id)
		if err != nil {
			continue
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		var pos string
		switch {
		case !e.Kind().IsPoint():
			pos = "—"
		case e.Pos().IsInfinite():
			pos = "at infinity"
		default:
			pos = fmt.Sprintf("(%.3g, %.3g)", e.Pos().X, e.Pos().Y)
		}

		stale := ""
		if e.Kind() == construction.KindLocus && m.runner.IsStale(e.Parents()[0]) {
			stale = " " + StyleWarning.Render("stale")
		}

		line := fmt.Sprintf("%s%3d  %-14s %s%s", cursor, id, e.Kind(), pos, stale)
		style := styleDependent
		if e.IsFree() {
			style = styleFreePoint
		}
		if i == m.cursor {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("step %g", m.step)))
	if m.pending > 0 {
		b.WriteString(StyleDim.Render("  ·  "))
		b.WriteString(styleIconSpinner.Render(fmt.Sprintf("%d refresh in flight", m.pending)))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Render(m.status))
	b.WriteString("\n")

	return b.String()
}
