// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectrogram/internal/render"
	"spectrogram/pkg/utils"
)

// Partial block glyphs, from one eighth to a full cell.
var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var plotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))

// Info describes the analysis shown in the status line.
type Info struct {
	Title      string
	Source     string
	SampleRate float64
	WindowSize int
	HopSize    int
}

type frameMsg render.Frame

type spectrumKeys struct {
	Quit key.Binding
}

func newSpectrumKeys() spectrumKeys {
	return spectrumKeys{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// spectrumModel is the Bubble Tea model behind the Spectrum surface.
type spectrumModel struct {
	info   Info
	keys   spectrumKeys
	width  int
	height int
	frame  render.Frame
	frames uint64
}

func newSpectrumModel(info Info) spectrumModel {
	return spectrumModel{info: info, keys: newSpectrumKeys(), width: 80, height: 24}
}

func (m spectrumModel) Init() tea.Cmd { return nil }

func (m spectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case frameMsg:
		m.frame = render.Frame(msg)
		m.frames++
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spectrumModel) View() string {
	title := titleStyle.Render(m.info.Title)
	rows := max(1, m.height-5)

	var status string
	if m.frames == 0 {
		status = "Waiting for the first window to fill..."
	} else {
		status = fmt.Sprintf("column %d · peak %.0f Hz · window %d · hop %d · %.0f Hz",
			m.frame.Column.Index, m.peakHz(), m.info.WindowSize, m.info.HopSize, m.info.SampleRate)
	}
	if m.info.Source != "" {
		status = m.info.Source + " · " + status
	}

	help := infoStyle.Render(fmt.Sprintf("%s: %s", m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc))
	return fmt.Sprintf("%s\n\n%s\n%s\n%s", title, plotStyle.Render(plot(m.frame.Points, m.width, rows)), status, help)
}

// peakHz returns the frequency of the loudest bin of the current column.
func (m spectrumModel) peakHz() float64 {
	mags := m.frame.Column.Magnitudes
	if len(mags) == 0 || m.info.WindowSize == 0 {
		return 0
	}
	bin := utils.FindPeakBin(mags, 0, len(mags)-1)
	return float64(bin) * m.info.SampleRate / float64(m.info.WindowSize)
}

// plot draws points as vertical bars, one per terminal cell, rows high.
func plot(points []render.Point, width, rows int) string {
	width = max(1, width)
	heights := make([]int, width) // in eighths of a cell
	if len(points) > 0 {
		for x := range heights {
			i := 0
			if width > 1 {
				i = x * (len(points) - 1) / (width - 1)
			}
			heights[x] = int(points[i].Y*float64(rows*8) + 0.5)
		}
	}

	var sb strings.Builder
	for r := rows - 1; r >= 0; r-- {
		base := r * 8
		for _, h := range heights {
			sb.WriteRune(blocks[max(0, min(8, h-base))])
		}
		if r > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Spectrum is a render.Surface that runs a Bubble Tea program in the
// background and sends it each frame.
type Spectrum struct {
	program *tea.Program
	done    chan struct{}
	quit    atomic.Bool
	err     error
}

// NewSpectrum starts the terminal UI. Extra options are passed to the
// program, e.g. to redirect input and output.
func NewSpectrum(info Info, opts ...tea.ProgramOption) *Spectrum {
	if info.Title == "" {
		info.Title = "Spectrogram"
	}
	s := &Spectrum{done: make(chan struct{})}
	s.program = tea.NewProgram(newSpectrumModel(info), append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	go func() {
		defer close(s.done)
		_, err := s.program.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			s.err = err
		}
		s.quit.Store(true)
	}()
	return s
}

// Poll reports whether the program has exited.
func (s *Spectrum) Poll() bool { return s.quit.Load() }

// Draw hands the frame to the program. It is a no-op once the program exited.
func (s *Spectrum) Draw(f render.Frame) error {
	if s.quit.Load() {
		return nil
	}
	s.program.Send(frameMsg(f))
	return nil
}

// Close stops the program, restores the terminal and returns any error the
// program exited with.
func (s *Spectrum) Close() error {
	s.program.Quit()
	<-s.done
	return s.err
}
