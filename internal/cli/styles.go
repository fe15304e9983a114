package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/pkg/util"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#C026D3")
	errorColor   = lipgloss.Color("#DC2626")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	StageStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(10)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	DetailStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			PaddingLeft(2)
)

// Summary is what a finished render reports
type Summary struct {
	Output   string
	Frames   int
	FPS      int
	Duration float64
	Segments int
	Width    int
	Height   int
	Elapsed  time.Duration
}

// PrintError prints one line naming the failing stage and its cause.
// Encoder diagnostics follow, indented.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}

	cause := err.Error()
	var detail string

	var ee *errs.EncodeError
	if errors.As(err, &ee) && ee.Output != "" {
		cause = strings.Replace(cause, "\n"+ee.Output, "", 1)
		detail = ee.Output
	}

	fmt.Fprintf(w, "%s %s %s\n",
		ErrorStyle.Render("Error:"),
		StageStyle.Render(errs.Stage(err)+":"),
		cause)

	if detail != "" {
		for _, line := range strings.Split(strings.TrimRight(detail, "\n"), "\n") {
			fmt.Fprintln(w, DetailStyle.Render(line))
		}
	}
}

// PrintSummary prints the render result
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, TitleStyle.Render("vico render complete"))
	row := func(k, v string) {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(k), ValueStyle.Render(v))
	}
	row("output", s.Output)
	row("frames", fmt.Sprintf("%d @ %d fps", s.Frames, s.FPS))
	row("duration", util.FormatSeconds(s.Duration))
	row("size", fmt.Sprintf("%dx%d", s.Width, s.Height))
	row("segments", fmt.Sprintf("%d", s.Segments))
	row("elapsed", s.Elapsed.Round(time.Millisecond).String())
}
