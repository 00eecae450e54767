package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"bgc-assistant/internal/assistant"
	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/locale"
)

// Display renders the chat to a terminal
type Display struct {
	out      io.Writer
	width    int
	renderer *glamour.TermRenderer

	spinnerMu       sync.Mutex
	spinnerDone     chan struct{}
	spinnerFinished chan struct{}
}

// NewDisplay creates a display writing to stdout
func NewDisplay() *Display {
	width, _ := getTerminalSize()
	style := glamour.WithAutoStyle()
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		style = glamour.WithStandardStyle("notty")
	}
	return newDisplay(os.Stdout, width, style)
}

func newDisplay(out io.Writer, width int, style glamour.TermRendererOption) *Display {
	// Create markdown renderer
	renderer, _ := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width-10),
	)

	return &Display{
		out:      out,
		width:    width,
		renderer: renderer,
	}
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// ClearScreen clears the terminal
func (d *Display) ClearScreen() {
	fmt.Fprint(d.out, "\033[2J\033[H")
}

// PrintWelcome displays the banner
func (d *Display) PrintWelcome(modelName string, lang locale.Language) {
	fmt.Fprintf(d.out, "%s%s╔══════════════════════════════════════════════╗%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(d.out, "%s%s║   BGC Assistant - Basrah Gas Company Q&A     ║%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(d.out, "%s%s╚══════════════════════════════════════════════╝%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(d.out, "\n%s%sModel:%s %s  %s%sLanguage:%s %s\n", colorBold, colorGray, colorReset, modelName, colorBold, colorGray, colorReset, lang)
	fmt.Fprintf(d.out, "%sCommands:%s /new | /history | /open <n> | /voice <text> | /lang en|ar | /reset | /clear | /exit\n", colorGray, colorReset)
	fmt.Fprintln(d.out)
}

// PrintPrompt displays the input prompt
func (d *Display) PrintPrompt(lang locale.Language) {
	fmt.Fprintf(d.out, "\n%s%s%s\n%s%s❯%s ", colorDim, lang.T(locale.InputPlaceholder), colorReset, colorBold, colorGreen, colorReset)
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	line := strings.Repeat("─", min(d.width, 80))
	fmt.Fprintf(d.out, "%s%s%s\n", colorDim, line, colorReset)
}

// PrintUserMessage displays a user message with timestamp
func (d *Display) PrintUserMessage(content string, timestamp time.Time, voice bool, lang locale.Language) {
	who := "You"
	if voice {
		who = "You · " + lang.T(locale.VoiceInput)
	}
	fmt.Fprintf(d.out, "\n%s┌─ %s · %s%s\n", colorGray, who, timestamp.Format("15:04:05"), colorReset)
	fmt.Fprintf(d.out, "%s│%s %s\n", colorGray, colorReset, content)
	fmt.Fprintf(d.out, "%s└%s\n", colorGray, colorReset)
}

// PrintTurn displays an answered turn with its sources and screenshots
func (d *Display) PrintTurn(res assistant.TurnResult, elapsed time.Duration, lang locale.Language) {
	if res.Failed() {
		fmt.Fprintf(d.out, "%s✗ %s%s\n", colorRed, res.Error, colorReset)
		return
	}

	fmt.Fprintf(d.out, "\n%s┌─ Assistant · %s%s\n", colorGray, time.Now().Format("15:04:05"), colorReset)
	d.printMarkdown(StripHTML(res.Answer))

	if res.ShowReferences && len(res.Pages) > 0 {
		fmt.Fprintf(d.out, "%s│%s\n", colorGray, colorReset)
		fmt.Fprintf(d.out, "%s│%s %s%s\n", colorGray, colorReset, SourcesLine(res.Pages, lang), colorReset)
		for _, shot := range res.Screenshots {
			fmt.Fprintf(d.out, "%s│    • %s %d: %s%s\n", colorGray, lang.T(locale.PageLabel), shot.Page, shot.Path, colorReset)
		}
	}

	fmt.Fprintf(d.out, "%s│%s\n", colorGray, colorReset)
	fmt.Fprintf(d.out, "%s│ ⏱  %s · ~%d words%s\n", colorGray, formatDuration(elapsed), len(strings.Fields(res.Answer)), colorReset)
	fmt.Fprintf(d.out, "%s└%s\n", colorGray, colorReset)
}

// SourcesLine formats the localized "Source: Page 3, 5" line
func SourcesLine(pages []int, lang locale.Language) string {
	nums := make([]string, len(pages))
	for i, p := range pages {
		nums[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("%s%s:%s %s %s", colorBold, lang.T(locale.SourceLabel), colorReset, lang.T(locale.PageLabel), strings.Join(nums, ", "))
}

// PrintHistory lists the visible conversations grouped by day, numbered for /open
func (d *Display) PrintHistory(groups []conversation.DateGroup, active string, lang locale.Language) {
	if len(groups) == 0 {
		d.PrintInfo(lang.T(locale.NoHistory))
		return
	}

	d.PrintSeparator()
	fmt.Fprintf(d.out, "%s%s%s\n", colorBold, lang.T(locale.HistoryTitle), colorReset)
	n := 1
	for _, g := range groups {
		fmt.Fprintf(d.out, "\n%s%s%s\n", colorCyan, g.Label(), colorReset)
		for _, sum := range g.Conversations {
			marker := " "
			if sum.ID == active {
				marker = "*"
			}
			title := sum.Title
			if title == "" {
				title = lang.T(locale.Untitled)
			}
			fmt.Fprintf(d.out, "%s %2d. %s %s(%s, %d)%s\n", marker, n, title, colorGray, sum.CreatedAt.Format("15:04"), sum.MessageCount, colorReset)
			n++
		}
	}
	d.PrintSeparator()
}

// PrintConversation replays a conversation log
func (d *Display) PrintConversation(conv conversation.Conversation, lang locale.Language) {
	d.PrintSeparator()
	title := conv.Title
	if title == "" {
		title = lang.T(locale.Untitled)
	}
	fmt.Fprintf(d.out, "%s%s%s\n", colorBold, title, colorReset)
	d.PrintSeparator()

	for _, msg := range conv.Messages {
		timestamp := msg.Timestamp.Format("15:04:05")
		if msg.Role == conversation.RoleUser {
			fmt.Fprintf(d.out, "\n[%s] You:\n%s\n", timestamp, msg.Content)
			continue
		}
		fmt.Fprintf(d.out, "\n[%s] Assistant:\n", timestamp)
		d.printMarkdown(StripHTML(msg.Content))
	}
	d.PrintSeparator()
}

// PrintInfo displays info message
func (d *Display) PrintInfo(msg string) {
	fmt.Fprintf(d.out, "%sℹ %s%s\n", colorCyan, msg, colorReset)
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Fprintf(d.out, "%s⚠ %s%s\n", colorYellow, msg, colorReset)
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	fmt.Fprintf(d.out, "%s✗ Error: %v%s\n", colorRed, err, colorReset)
}

// PrintSuccess displays success message
func (d *Display) PrintSuccess(msg string) {
	fmt.Fprintf(d.out, "%s✓ %s%s\n", colorGreen, msg, colorReset)
}

// PrintGoodbye displays goodbye message
func (d *Display) PrintGoodbye() {
	fmt.Fprintf(d.out, "\n%s%sThank you for using BGC Assistant!%s\n", colorBold, colorCyan, colorReset)
}

func (d *Display) printMarkdown(text string) {
	rendered := text
	if d.renderer != nil {
		if out, err := d.renderer.Render(text); err == nil {
			rendered = out
		}
	}
	// Indent each line
	for _, line := range strings.Split(strings.Trim(rendered, "\n"), "\n") {
		fmt.Fprintf(d.out, "%s│%s %s\n", colorGray, colorReset, line)
	}
}

// Helper functions

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func getTerminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80, 24 // defaults
	}
	return width, height
}
