package bench

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// Table renders the per-iteration timings, with a final row for the GPU
// upload and download when a GPU took part.
func (r *Result) Table() string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	headers := []string{"Iteration", "CPU"}
	if r.HasGPU() {
		headers = append(headers, "GPU", "Speedup")
	}
	table.Headers(headers...)

	for i, it := range r.Iterations {
		row := []string{strconv.Itoa(i + 1), formatDuration(it.CPU)}
		if r.HasGPU() {
			row = append(row, formatDuration(it.GPU), speedup(it.CPU, it.GPU))
		}
		table.Row(row...)
	}
	if r.HasGPU() {
		table.Row("upload", "", formatDuration(r.Upload), "")
		table.Row("download", "", formatDuration(r.Download), "")
	}
	return table.String()
}

// WriteReport writes a summary line, the timing table and the sampled
// elements of both buffers.
func (r *Result) WriteReport(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s elements (%s per buffer), %d iterations, input %g\n",
		humanize.Comma(int64(r.Config.Elements)), humanize.IBytes(r.Bytes()),
		len(r.Iterations), r.Config.Value)
	b.WriteString(r.Table())
	b.WriteString("\n")

	fmt.Fprintf(&b, "CPU first %d: %s\n", len(r.CPUSamples), formatSamples(r.CPUSamples))
	if r.HasGPU() {
		fmt.Fprintf(&b, "GPU first %d: %s\n", len(r.GPUSamples), formatSamples(r.GPUSamples))
		fmt.Fprintf(&b, "max |cpu-gpu|: %g\n", r.MaxDiff)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatDuration(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64) + " ms"
}

func speedup(cpu, gpu time.Duration) string {
	if gpu <= 0 {
		return "-"
	}
	return strconv.FormatFloat(float64(cpu)/float64(gpu), 'f', 1, 64) + "x"
}

func formatSamples(s []float32) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 4, 32)
	}
	return strings.Join(parts, " ")
}
