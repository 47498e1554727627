// Command palettes shows every theme as terminal swatches: the six dynamic
// levels on the left and the evaluated gradient across the rest of the row.
//
// Keys: q or Esc quits, Up/Down selects a theme, Enter prints its hex ramp.
package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/gdamore/tcell/v2"

	"lunar-vfx/internal/vfx"
)

const (
	swatchWidth = 4
	labelWidth  = 22
	rowHeight   = 2
)

type browser struct {
	screen   tcell.Screen
	themes   []string
	selected int
	printed  string
}

func tcellColor(c color.NRGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (b *browser) fill(x, y, w int, c color.NRGBA) {
	style := tcell.StyleDefault.Background(tcellColor(c))
	for i := 0; i < w; i++ {
		b.screen.SetContent(x+i, y, ' ', nil, style)
	}
}

func (b *browser) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		b.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (b *browser) draw() {
	b.screen.Clear()
	width, height := b.screen.Size()

	b.text(0, 0, "lunar-vfx palettes  (up/down select, enter print, q quit)", tcell.StyleDefault.Bold(true))

	gradientX := labelWidth + vfx.DynamicLevels*swatchWidth + 2
	gradientW := width - gradientX

	for i, name := range b.themes {
		y := 2 + i*rowHeight
		if y >= height-2 {
			break
		}
		p := vfx.MustTheme(name)

		style := tcell.StyleDefault
		marker := "  "
		if i == b.selected {
			style = style.Reverse(true)
			marker = "> "
		}
		b.text(0, y, fmt.Sprintf("%s%-*s", marker, labelWidth-2, name), style)

		for d := vfx.Pianissimo; d <= vfx.Sforzando; d++ {
			b.fill(labelWidth+int(d)*swatchWidth, y, swatchWidth, p.At(d))
		}
		if gradientW > 1 {
			for x, c := range vfx.Sample(p, gradientW) {
				b.fill(gradientX+x, y, 1, c)
			}
		}
	}

	if b.printed != "" {
		b.text(0, height-1, b.printed, tcell.StyleDefault.Dim(true))
	}
	b.screen.Show()
}

func (b *browser) ramp() string {
	p := vfx.MustTheme(b.themes[b.selected])
	s := p.Name() + ":"
	for d := vfx.Pianissimo; d <= vfx.Sforzando; d++ {
		s += fmt.Sprintf(" %s=%s", d, vfx.Hex(p.At(d)))
	}
	return s
}

// handle reports false when the browser should exit.
func (b *browser) handle(ev tcell.Event) bool {
	if ev == nil {
		return false
	}
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyUp:
			b.selected = (b.selected + len(b.themes) - 1) % len(b.themes)
		case ev.Key() == tcell.KeyDown:
			b.selected = (b.selected + 1) % len(b.themes)
		case ev.Key() == tcell.KeyEnter:
			b.printed = b.ramp()
		}
	case *tcell.EventResize:
		b.screen.Sync()
	}
	b.draw()
	return true
}

func main() {
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	b := &browser{screen: screen, themes: vfx.Themes()}
	b.draw()

	for b.handle(screen.PollEvent()) {
	}

	printed := b.printed
	screen.Fini()
	if printed != "" {
		fmt.Println(printed)
	}
}
