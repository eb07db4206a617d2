package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/render"
	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/viewport"
)

// frameInterval paces the redraw loop at roughly 30 fps. Input events
// between ticks coalesce into a single render pass.
const frameInterval = 33 * time.Millisecond

// viewCommand creates the view command for interactive trace exploration.
func (c *CLI) viewCommand() *cobra.Command {
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "view [trace.json]",
		Short: "Explore a trace interactively in the terminal",
		Long: `Explore a trace interactively in the terminal.

Preprocessing runs on a background worker; the viewer stays responsive
while large traces are packed into rows. Reloading or changing options
cancels the in-flight preprocessing job.

Controls:

  wheel        zoom at the cursor
  drag         pan
  click header collapse/expand that lane
  arrows       pan
  + / -        zoom at the center
  f            fit the whole trace
  c / e        collapse/expand all lanes
  q            quit

The minimap in the corner always shows the whole trace; click it to
recenter, drag it to move the widget.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], opts)
		},
	}

	applyLayoutFlags(cmd, &opts)
	return cmd
}

// runView loads the trace, starts the preprocessing worker, and hands
// the terminal to bubbletea.
func (c *CLI) runView(ctx context.Context, path string, opts pipeline.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read trace %s: %w", path, err)
	}

	// The TUI owns the terminal; worker logs would corrupt the frame.
	worker := pipeline.NewWorker(log.NewWithOptions(io.Discard, log.Options{}))
	defer worker.Close()

	m := newViewerModel(ctx, path, data, opts.TimelineConfig(), worker)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

// =============================================================================
// Viewer Model
// =============================================================================

type frameTickMsg time.Time

type workerReplyMsg pipeline.Reply

// viewerModel is the bubbletea model hosting the interaction
// controller. All layout math lives in pkg/viewport and pkg/render; the
// model only translates terminal events and owns the worker handoff.
type viewerModel struct {
	ctx    context.Context
	path   string
	data   []byte
	cfg    timeline.Config
	worker *pipeline.Worker

	ctrl    *viewport.Controller
	layout  *timeline.Layout
	minimap *render.Minimap
	theme   render.Theme

	width, height int // canvas size (status bar excluded)
	frame         string
	status        string
	errMsg        string

	hover          *viewport.Hit
	hoverDirty     bool
	lastX, lastY   int
	minimapPressed bool
}

func newViewerModel(ctx context.Context, path string, data []byte, cfg timeline.Config, worker *pipeline.Worker) *viewerModel {
	theme := render.DefaultTheme()
	// The terminal cannot blend; use an opaque tint for the window.
	theme.WindowOverlay = "#2c3a66"

	return &viewerModel{
		ctx:     ctx,
		path:    path,
		data:    data,
		cfg:     cfg,
		worker:  worker,
		ctrl:    viewport.NewController(),
		minimap: render.NewMinimap(0, 1, 26, 8),
		theme:   theme,
		status:  "processing...",
	}
}

func (m *viewerModel) Init() tea.Cmd {
	m.worker.Submit(m.ctx, m.data, m.cfg)
	return tea.Batch(listenReplies(m.worker), frameTick())
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// listenReplies forwards one worker reply into the event loop.
func listenReplies(w *pipeline.Worker) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-w.Replies()
		if !ok {
			return nil
		}
		return workerReplyMsg(r)
	}
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameTickMsg:
		if (m.ctrl.ConsumeRedraw() || m.hoverDirty) && m.layout != nil {
			m.hoverDirty = false
			m.frame = m.renderFrame()
		}
		return m, frameTick()

	case workerReplyMsg:
		m.applyReply(pipeline.Reply(msg))
		return m, listenReplies(m.worker)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 1 // status bar
		if m.height < 1 {
			m.height = 1
		}
		m.placeMinimap()
		m.ctrl.Resize(float64(m.width), float64(m.height))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

// applyReply installs a finished layout or surfaces the error. A stale
// or failed job never touches the previously applied layout.
func (m *viewerModel) applyReply(r pipeline.Reply) {
	if r.Seq != m.worker.Latest() {
		// A newer job was submitted while this reply sat in the
		// channel; its result no longer matches the requested options.
		return
	}
	if r.Cmd == pipeline.CmdError {
		m.errMsg = r.Message
		return
	}
	if r.Layout == nil {
		return
	}
	m.layout = r.Layout
	m.errMsg = ""
	m.status = fmt.Sprintf("%d lanes · %d rows", len(r.Layout.Threads), r.Layout.TotalRows)

	m.ctrl.SetContent(r.Layout.Config.WidthPx, r.Layout.ContentHeight)
	m.ctrl.Fit()
}

func (m *viewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left":
		m.ctrl.PanBy(8, 0)
	case "right":
		m.ctrl.PanBy(-8, 0)
	case "up":
		m.ctrl.PanBy(0, 4)
	case "down":
		m.ctrl.PanBy(0, -4)
	case "+", "=":
		m.ctrl.ZoomAtCenter(1.25)
	case "-":
		m.ctrl.ZoomAtCenter(0.8)
	case "f":
		m.ctrl.Fit()
	case "c":
		if m.layout != nil {
			m.ctrl.CollapseAll(laneIDs(m.layout))
		}
	case "e":
		m.ctrl.ExpandAll()
	}
	return m, nil
}

func (m *viewerModel) handleMouse(msg tea.MouseMsg) {
	px, py := float64(msg.X), float64(msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.ctrl.Wheel(1.15, px, py)
	case msg.Button == tea.MouseButtonWheelDown:
		m.ctrl.Wheel(1/1.15, px, py)

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.minimapPressed = m.minimap.Contains(px, py)
		m.ctrl.PointerDown(px, py)

	case msg.Action == tea.MouseActionMotion:
		if m.minimapPressed {
			// Drag moves the widget, not the view; release still
			// classifies from the press origin.
			m.minimap.MoveBy(px-float64(m.lastX), py-float64(m.lastY))
			m.hoverDirty = true
		} else if m.ctrl.Mode() == viewport.ModePanning {
			m.ctrl.PointerMove(px, py)
		} else if m.layout != nil {
			m.updateHover(px, py)
		}

	case msg.Action == tea.MouseActionRelease:
		dx, dy := m.ctrl.PointerUp(px, py)
		if m.minimapPressed {
			m.minimapPressed = false
			if m.minimap.Classify(dx, dy) == render.GestureClick && m.layout != nil {
				m.ctrl.CenterOnTime(m.minimap.ContentXAt(px, m.layout.Config.WidthPx))
			}
			// A drag already moved the widget during motion events.
		} else if dx == 0 && dy == 0 && m.layout != nil {
			// Click: a lane header toggles its collapse state.
			if lane := m.ctrl.HitLane(m.layout, px, py); lane != nil {
				m.ctrl.ToggleLane(lane.ID)
			}
		}
	}

	m.lastX, m.lastY = msg.X, msg.Y
}

// updateHover refreshes the tooltip hit and schedules a redraw only
// when it changes, so plain mouse travel over empty space stays free.
func (m *viewerModel) updateHover(px, py float64) {
	hit := m.ctrl.HitTest(m.layout, px, py)
	changed := (hit == nil) != (m.hover == nil) ||
		(hit != nil && m.hover != nil && hit.Task != m.hover.Task)
	m.hover = hit
	if changed || hit != nil {
		// The tooltip follows the cursor even over the same task.
		m.hoverDirty = true
	}
}

// placeMinimap pins the widget to the top-right corner when it has
// never been dragged or no longer fits after a resize.
func (m *viewerModel) placeMinimap() {
	if m.minimap.X+m.minimap.W > float64(m.width) || m.minimap.X <= 0 {
		m.minimap.X = float64(m.width) - m.minimap.W - 2
		if m.minimap.X < 0 {
			m.minimap.X = 0
		}
	}
}

// =============================================================================
// Frame Rendering
// =============================================================================

// renderFrame performs one full render pass into a fresh cell canvas.
func (m *viewerModel) renderFrame() string {
	canvas := newCellCanvas(m.width, m.height)

	r := render.NewRenderer(canvas)
	r.Measurer = render.NewMemoMeasurer(cellMeasurer{})
	r.Theme = m.theme
	r.FontSize = 1
	r.TickSpacingPx = 20 // cells between ruler ticks

	r.Render(render.Frame{
		Layout:     m.layout,
		State:      m.ctrl.State,
		Visibility: m.ctrl.Visibility,
		ViewW:      float64(m.width),
		ViewH:      float64(m.height),
	})

	m.minimap.Render(canvas, m.theme, m.layout, m.ctrl.State, float64(m.width), float64(m.height))
	m.drawTooltip(canvas)

	return canvas.String()
}

// drawTooltip paints the hovered task's identity next to the cursor.
func (m *viewerModel) drawTooltip(canvas *cellCanvas) {
	if m.hover == nil {
		return
	}
	g := m.hover.Task
	label := g.Label
	if label == "" {
		label = fmt.Sprintf("task %d", g.TaskIndex)
	}
	text := fmt.Sprintf(" %s · %.0f–%.0fµs (%.0fµs) ", label, g.Start, g.End, g.End-g.Start)

	x, y := m.lastX+2, m.lastY-1
	if x+len([]rune(text)) > m.width {
		x = m.width - len([]rune(text))
	}
	if y < 0 {
		y = 0
	}
	canvas.FillRect(float64(x), float64(y), float64(len([]rune(text))), 1, "#3b4261")
	canvas.Text(float64(x), float64(y), text, 1, "#c0caf5")
}

func (m *viewerModel) View() string {
	if m.layout == nil || m.frame == "" {
		body := StyleDim.Render("processing " + m.path + "...")
		if m.errMsg != "" {
			body = styleIconError.Render(iconError) + " " + m.errMsg
		}
		return body + "\n" + m.statusBar()
	}
	return m.frame + "\n" + m.statusBar()
}

func (m *viewerModel) statusBar() string {
	left := StyleHighlight.Render(m.path)
	mid := StyleDim.Render(fmt.Sprintf("  %s · zoom %.0f%%", m.status, m.ctrl.State.Scale*100))
	help := StyleDim.Render("  wheel zoom · drag pan · f fit · q quit")
	if m.errMsg != "" {
		mid = "  " + StyleWarning.Render(m.errMsg)
	}
	return left + mid + help
}

func laneIDs(l *timeline.Layout) []string {
	ids := make([]string, len(l.Threads))
	for i := range l.Threads {
		ids[i] = l.Threads[i].ID
	}
	return ids
}
