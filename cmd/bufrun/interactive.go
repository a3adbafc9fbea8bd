package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/guestbuf/access"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/guestmem"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	byteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateInputWrite
)

type inspectorModel struct {
	err    error
	region *guestmem.Region
	ptr    uint32
	length uint32
	bytes  []byte
	result string
	input  textinput.Model
	state  modelState
}

func runInteractive(region *guestmem.Region, ptr, length uint32) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	m := &inspectorModel{region: region, ptr: ptr, length: length}
	m.refresh()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// refresh copies the region out under lock so the dump never races a write.
func (m *inspectorModel) refresh() {
	scope := access.Enter()
	defer scope.Close()

	snapshot, err := scope.WithLock(m.region, 1, func(v *buffer.View, _ uint32) (any, error) {
		out := make([]byte, v.Len())
		copy(out, v.Bytes())
		return out, nil
	})
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.bytes = snapshot.([]byte)
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateBrowse {
				return m, tea.Quit
			}

		case "w":
			if m.state == stateBrowse {
				ti := textinput.New()
				ti.Placeholder = "index value"
				ti.Prompt = "write word: "
				ti.Width = 40
				ti.Focus()
				m.input = ti
				m.state = stateInputWrite
				return m, nil
			}

		case "s":
			if m.state == stateBrowse {
				m.doSum()
				return m, nil
			}

		case "+":
			if m.state == stateBrowse {
				m.doIncrement()
				return m, nil
			}

		case "r":
			if m.state == stateBrowse {
				m.refresh()
				m.result = "refreshed"
				return m, nil
			}

		case "enter":
			if m.state == stateInputWrite {
				m.doWrite(m.input.Value())
				m.state = stateBrowse
				return m, nil
			}

		case "esc":
			if m.state == stateInputWrite {
				m.state = stateBrowse
				return m, nil
			}
		}
	}

	if m.state == stateInputWrite {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *inspectorModel) doWrite(spec string) {
	fields := strings.Fields(spec)
	if len(fields) != 2 {
		m.err = fmt.Errorf("want: index value")
		return
	}
	idx, err := strconv.ParseUint(fields[0], 0, 32)
	if err != nil {
		m.err = fmt.Errorf("bad index: %w", err)
		return
	}
	val, err := strconv.ParseUint(fields[1], 0, 32)
	if err != nil {
		m.err = fmt.Errorf("bad value: %w", err)
		return
	}

	scope := access.Enter()
	defer scope.Close()

	_, werr := scope.WithLock(m.region, 4, func(v *buffer.View, _ uint32) (any, error) {
		return nil, v.WriteU32(uint32(idx), uint32(val))
	})
	if werr != nil {
		m.err = werr
		return
	}
	m.result = fmt.Sprintf("word[%d] <- %d", idx, val)
	m.refresh()
}

func (m *inspectorModel) doSum() {
	scope := access.Enter()
	defer scope.Close()

	g, err := scope.Borrow(m.region)
	if err != nil {
		m.err = err
		return
	}
	defer g.Release()

	total, err := g.Sum()
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.result = fmt.Sprintf("sum = %d", total)
}

func (m *inspectorModel) doIncrement() {
	scope := access.Enter()
	defer scope.Close()

	g, err := scope.BorrowMut(m.region)
	if err != nil {
		m.err = err
		return
	}
	defer g.Release()

	if err := g.IncrementAll(); err != nil {
		m.err = err
		return
	}
	m.result = "incremented every byte"
	m.refresh()
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("guest buffer @0x%x (%d bytes)", m.ptr, m.length)))
	b.WriteString("\n\n")
	b.WriteString(m.hexDump())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.result != "" {
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n")
	}

	if m.state == stateInputWrite {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: write under lock • esc: cancel"))
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("w: write word • s: sum • +: increment all • r: refresh • q: quit"))
	}
	return b.String()
}

func (m *inspectorModel) hexDump() string {
	var b strings.Builder
	for row := 0; row < len(m.bytes); row += 16 {
		b.WriteString(offsetStyle.Render(fmt.Sprintf("%08x", m.ptr+uint32(row))))
		b.WriteString("  ")
		for col := 0; col < 16 && row+col < len(m.bytes); col++ {
			b.WriteString(byteStyle.Render(fmt.Sprintf("%02x ", m.bytes[row+col])))
			if col == 7 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
