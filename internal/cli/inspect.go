package cli

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sheetpack/pkg/export"
)

// inspectCommand creates the inspect command for browsing a map file.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [map]",
		Short: "Browse the sprites of a map file",
		Long: `Browse the sprites of a map file (txt, xml or json).

In a terminal the sprites are shown in an interactive table; use --plain, or
pipe the output, to print the table once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			atlas, err := export.LoadMap(args[0])
			if err != nil {
				return err
			}
			if err := atlas.Validate(); err != nil {
				printWarning("%s", err)
			}

			if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(stdout, atlasSummary(atlas))
				fmt.Fprintln(stdout, spriteTable(atlas.Sprites, -1).Render())
				return nil
			}
			_, err = tea.NewProgram(newAtlasModel(atlas), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the table instead of browsing it")

	return cmd
}

// =============================================================================
// atlasModel - Interactive sprite table
// =============================================================================

// spriteOrder is a sort order for the sprite table.
type spriteOrder int

const (
	orderName spriteOrder = iota
	orderArea
	orderPosition
	numOrders
)

func (o spriteOrder) String() string {
	switch o {
	case orderArea:
		return "area"
	case orderPosition:
		return "position"
	default:
		return "name"
	}
}

// sortSprites sorts sprites in place. Area sorts largest first; position
// sorts top to bottom, then left to right. Ties fall back to the name.
func sortSprites(sprites []export.Sprite, order spriteOrder) {
	slices.SortFunc(sprites, func(a, b export.Sprite) int {
		var c int
		switch order {
		case orderArea:
			c = cmp.Compare(b.Area(), a.Area())
		case orderPosition:
			c = cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
		}
		return cmp.Or(c, strings.Compare(a.Name, b.Name))
	})
}

// atlasModel is the bubbletea model for browsing an atlas.
type atlasModel struct {
	atlas   *export.Atlas
	sprites []export.Sprite
	order   spriteOrder
	cursor  int
	offset  int
	height  int
}

func newAtlasModel(a *export.Atlas) atlasModel {
	return atlasModel{
		atlas:   a,
		sprites: slices.Clone(a.Sprites),
		height:  15,
	}
}

func (m atlasModel) Init() tea.Cmd {
	return nil
}

func (m atlasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sprites)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.sprites)-1, 0)
		case "s":
			m.order = (m.order + 1) % numOrders
			m.sprites = slices.Clone(m.sprites)
			sortSprites(m.sprites, m.order)
			m.cursor = 0
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *atlasModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m atlasModel) View() string {
	var b strings.Builder

	b.WriteString(atlasSummary(m.atlas))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  s sort (" + m.order.String() + ")  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.sprites))
	b.WriteString(spriteTable(m.sprites[m.offset:end], m.cursor-m.offset).Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.sprites))))

	return b.String()
}

// =============================================================================
// Rendering
// =============================================================================

// atlasSummary renders the title line with the image name, sheet size,
// sprite count and occupancy. Power-of-two sheets are tagged.
func atlasSummary(a *export.Atlas) string {
	name := a.Image
	if name == "" {
		name = "(no image)"
	}
	detail := fmt.Sprintf(" · %d sprites · %.1f%% used", len(a.Sprites), a.Occupancy()*100)
	if a.PowerOfTwo() {
		detail += " · power of two"
	}
	return StyleTitle.Render(name) + " " +
		StyleNumber.Render(fmt.Sprintf("%dx%d", a.Width, a.Height)) +
		StyleDim.Render(detail)
}

// headerRow is the row index lipgloss passes to StyleFunc for headers.
const headerRow = -1

// spriteTable renders sprites as a table. The row at selected, if any, is
// highlighted.
func spriteTable(sprites []export.Sprite, selected int) *table.Table {
	rows := make([][]string, len(sprites))
	for i, s := range sprites {
		rows[i] = []string{
			s.Name,
			strconv.Itoa(s.X),
			strconv.Itoa(s.Y),
			strconv.Itoa(s.Width),
			strconv.Itoa(s.Height),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Sprite", "X", "Y", "W", "H").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cell
			if col > 0 {
				style = style.Align(lipgloss.Right)
			}
			switch {
			case row == headerRow:
				return style.Inherit(headerStyle)
			case row == selected:
				return style.Foreground(colorAccent).Bold(true)
			case col > 0:
				return style.Foreground(colorMuted)
			}
			return style.Foreground(colorText)
		})
}
