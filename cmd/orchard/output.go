package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/store"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func ok(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

func fail(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✖ "+msg))
}

// swatch renders a colored block for a hex color.
func swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

func panel(w io.Writer, lines []string) {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	fmt.Fprintln(w, border.Render(strings.Join(lines, "\n")))
}

func printContainers(w io.Writer, cs []store.Container) {
	if len(cs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no containers"))
		return
	}
	for _, c := range cs {
		fmt.Fprintf(w, "%3d %s %s %s %s\n", c.Order, swatch(c.Color), c.Icon, titleStyle.Render(c.Name), mutedStyle.Render(c.ID))
	}
}

func printContainer(w io.Writer, c store.Container) {
	panel(w, []string{
		swatch(c.Color) + " " + c.Icon + " " + titleStyle.Render(c.Name),
		mutedStyle.Render("id      ") + c.ID,
		mutedStyle.Render("color   ") + c.Color,
		mutedStyle.Render("order   ") + fmt.Sprint(c.Order),
		mutedStyle.Render("created ") + c.CreatedAt.Format("2006-01-02 15:04"),
	})
}

func printSubContainers(w io.Writer, subs []store.SubContainer) {
	if len(subs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no sub-containers"))
		return
	}
	for _, sc := range subs {
		fmt.Fprintf(w, "%3d %s %s %s\n", sc.Order, swatch(sc.Color), titleStyle.Render(sc.Name), mutedStyle.Render(sc.ID))
	}
}

func printSubContainer(w io.Writer, sc store.SubContainer) {
	name := titleStyle.Render(sc.Name)
	if sc.Icon != "" {
		name = sc.Icon + " " + name
	}
	panel(w, []string{
		swatch(sc.Color) + " " + name,
		mutedStyle.Render("id        ") + sc.ID,
		mutedStyle.Render("container ") + sc.ContainerID,
		mutedStyle.Render("order     ") + fmt.Sprint(sc.Order),
	})
}

func printItems(w io.Writer, items []store.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no items"))
		return
	}
	done := 0
	for _, it := range items {
		if it.Status == store.StatusComplete {
			done++
		}
		fmt.Fprintln(w, itemLine(it))
	}
	fmt.Fprintln(w, mutedStyle.Render(progressBar(done, len(items), 20)))
}

func itemLine(it store.Item) string {
	where := ""
	if !it.AtRoot() {
		where = mutedStyle.Render(" [" + it.SubContainerID + "]")
	}
	if it.Status == store.StatusComplete {
		return fmt.Sprintf("%3d %s %s%s %s", it.Order, successStyle.Render(boxChecked), doneStyle.Render(it.Title), where, mutedStyle.Render(it.ID))
	}
	return fmt.Sprintf("%3d %s %s%s %s", it.Order, pendingStyle.Render(boxUnchecked), it.Title, where, mutedStyle.Render(it.ID))
}

func printItem(w io.Writer, it store.Item) {
	lines := []string{
		itemLine(it),
		mutedStyle.Render("container ") + it.ContainerID,
		mutedStyle.Render("status    ") + string(it.Status),
		mutedStyle.Render("created   ") + it.CreatedAt.Format("2006-01-02 15:04"),
	}
	if it.CompletedAt != nil {
		lines = append(lines, mutedStyle.Render("completed ")+it.CompletedAt.Format("2006-01-02 15:04"))
	}
	if it.Notes != "" {
		lines = append(lines, "", it.Notes)
	}
	panel(w, lines)
}

func printPalette(w io.Writer) {
	for i, c := range engine.Palette {
		fmt.Fprintf(w, "%2d %s %-7s %s\n", i, swatch(c.Hex), c.Name, mutedStyle.Render(c.Hex))
	}
}

func progressBar(done, total, width int) string {
	if total == 0 {
		total = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}
