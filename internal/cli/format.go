package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"deckhand/internal/card"
	"deckhand/pkg/textutil"
)

// OutputFormat represents the supported output formats for card lists.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatWide  OutputFormat = "wide"
	OutputFormatPlain OutputFormat = "plain"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a user-supplied format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatTable, OutputFormatWide, OutputFormatPlain, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, wide, plain, json or yaml)", s)
	}
}

// PrintOptions configures a CardPrinter.
type PrintOptions struct {
	Format    OutputFormat
	NoHeaders bool
}

// CardPrinter writes ordered card lists.
type CardPrinter struct {
	out  io.Writer
	opts PrintOptions
}

// NewCardPrinter creates a printer writing to out.
func NewCardPrinter(out io.Writer, opts PrintOptions) *CardPrinter {
	if opts.Format == "" {
		opts.Format = OutputFormatTable
	}
	return &CardPrinter{out: out, opts: opts}
}

// cardView is the structured form of a card for json and yaml output.
type cardView struct {
	Rank    int               `json:"rank" yaml:"rank"`
	Name    string            `json:"name" yaml:"name"`
	Type    card.Type         `json:"type" yaml:"type"`
	Score   float64           `json:"score" yaml:"score"`
	Payload map[string]string `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Print writes cards in the configured format.
func (p *CardPrinter) Print(cards []card.Card) error {
	switch p.opts.Format {
	case OutputFormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(views(cards))
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(views(cards)); err != nil {
			return err
		}
		return enc.Close()
	case OutputFormatPlain:
		p.printPlain(cards)
		return nil
	case OutputFormatTable, OutputFormatWide:
		p.printTable(cards)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", p.opts.Format)
	}
}

func views(cards []card.Card) []cardView {
	out := make([]cardView, len(cards))
	for i, c := range cards {
		out[i] = cardView{Rank: i + 1, Name: c.Name(), Type: c.Type(), Score: c.RankingScore(), Payload: c.Payload()}
	}
	return out
}

func (p *CardPrinter) headers() []string {
	headers := []string{"rank", "name", "type", "score", "title"}
	if p.opts.Format == OutputFormatWide {
		headers = append(headers, "summary", "uri")
	}
	return headers
}

func (p *CardPrinter) row(rank int, c card.Card) []string {
	title, _ := c.PayloadValue(card.PayloadTitle)
	row := []string{strconv.Itoa(rank), c.Name(), string(c.Type()), formatScore(c.RankingScore()), textutil.SingleLine(title)}
	if p.opts.Format == OutputFormatWide {
		summary, _ := c.PayloadValue(card.PayloadSummary)
		uri, _ := c.PayloadValue(card.PayloadURI)
		row = append(row, textutil.Truncate(summary, textutil.DefaultSummaryMaxLen), uri)
	}
	return row
}

func (p *CardPrinter) printTable(cards []card.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(p.out, FormatWarning("No cards to show"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)

	if !p.opts.NoHeaders {
		var header table.Row
		for _, h := range p.headers() {
			header = append(header, h)
		}
		t.AppendHeader(header)
	}

	for i, c := range cards {
		cells := p.row(i+1, c)
		row := make(table.Row, len(cells))
		for j, cell := range cells {
			row[j] = cell
		}
		row[2] = typeColor(c.Type()).Sprint(cells[2])
		t.AppendRow(row)
	}
	t.Render()
}

func (p *CardPrinter) printPlain(cards []card.Card) {
	w := NewPlainTableWriter(p.out)
	w.SetHeaders(p.headers())
	w.SetNoHeaders(p.opts.NoHeaders)
	for i, c := range cards {
		w.AppendRow(p.row(i+1, c))
	}
	w.Render()
}

func typeColor(t card.Type) text.Colors {
	switch {
	case t.IsConditional():
		return text.Colors{text.FgYellow}
	case t == card.TypeSlice:
		return text.Colors{text.FgCyan}
	case t == card.TypeLegacySuggestion:
		return text.Colors{text.FgGreen}
	default:
		return text.Colors{}
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}
