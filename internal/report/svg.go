package report

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
)

// barChart describes a simple vertical bar chart rendered as SVG. The
// geometry mirrors the bar plots the analysis produces: one bar per
// category with its value printed above it.
type barChart struct {
	Title  string
	Width  int
	Height int
	Bars   []chartBar
	// MaxValue fixes the y axis; accuracy charts pin it to 1.0.
	MaxValue float64
}

type chartBar struct {
	Label string
	Value float64

	X, Y, W, H int
	ValueText  string
	LabelX     int
	ValueY     int
	BaselineY  int
}

const (
	chartMarginX   = 40
	chartMarginTop = 40
	chartMarginBot = 60
	chartBarGap    = 12
)

// xmlEscaper covers the characters that would break an SVG text node.
var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var chartTemplate = template.Must(template.New("svg").Funcs(template.FuncMap{
	"div": func(a, b int) int { return a / b },
	"esc": xmlEscaper.Replace,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
  <rect width="{{.Width}}" height="{{.Height}}" fill="white"/>
  <text x="{{div .Width 2}}" y="24" text-anchor="middle" font-family="sans-serif" font-size="16" font-weight="bold">{{esc .Title}}</text>
{{- range .Bars}}
  <rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" fill="#2a6f8f" fill-opacity="0.9"/>
  <text x="{{.LabelX}}" y="{{.ValueY}}" text-anchor="middle" font-family="sans-serif" font-size="12">{{esc .ValueText}}</text>
  <text x="{{.LabelX}}" y="{{.BaselineY}}" text-anchor="middle" font-family="sans-serif" font-size="12">{{esc .Label}}</text>
{{- end}}
</svg>
`))

// render lays out the bars and executes the SVG template.
func (c *barChart) render() (string, error) {
	if c.Width == 0 {
		c.Width = chartMarginX*2 + len(c.Bars)*90
		if c.Width < 360 {
			c.Width = 360
		}
	}
	if c.Height == 0 {
		c.Height = 320
	}

	maxVal := c.MaxValue
	if maxVal == 0 {
		for _, b := range c.Bars {
			if b.Value > maxVal {
				maxVal = b.Value
			}
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	plotW := c.Width - chartMarginX*2
	plotH := c.Height - chartMarginTop - chartMarginBot
	n := len(c.Bars)
	if n == 0 {
		n = 1
	}
	barW := plotW / n

	for i := range c.Bars {
		b := &c.Bars[i]
		h := int(float64(plotH) * (b.Value / maxVal))
		if h < 0 {
			h = 0
		}
		b.W = barW - chartBarGap
		b.X = chartMarginX + i*barW + chartBarGap/2
		b.H = h
		b.Y = chartMarginTop + plotH - h
		b.LabelX = b.X + b.W/2
		b.ValueY = b.Y - 6
		b.BaselineY = chartMarginTop + plotH + 20
		if b.ValueText == "" {
			b.ValueText = trimFloat(b.Value)
		}
	}

	var sb strings.Builder
	if err := chartTemplate.Execute(&sb, c); err != nil {
		return "", eris.Wrap(err, "report: render chart")
	}
	return sb.String(), nil
}

// trimFloat formats a value with up to two decimals, dropping trailing
// zeros so counts render as plain integers.
func trimFloat(v float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.2f", v), "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
