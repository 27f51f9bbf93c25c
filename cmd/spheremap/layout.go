package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spheremap/internal/client"
	"spheremap/internal/domain"
	"spheremap/internal/geometry"
	"spheremap/internal/normalize"
	"spheremap/internal/render"
	"spheremap/internal/viewstate"
)

func layoutCmd(g *globals) *cobra.Command {
	var (
		mode          string
		width, height float64
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Fetch the map once and print the computed layout",
		Long: `Fetch the organization's map, lay out its spheres and print sphere
zones and constrained node positions in pixels.

  spheremap layout --org 7
  spheremap layout --mode radial --width 1920 --height 1080
  spheremap layout --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if err := requireOrg(cfg); err != nil {
				return err
			}
			if mode == "" {
				mode = cfg.Layout.Mode
			}
			layoutMode, ok := domain.ParseLayoutMode(mode)
			if !ok {
				return fmt.Errorf("unknown layout mode %q (want saved, radial or grid)", mode)
			}
			if width <= 0 {
				width = cfg.Canvas.Width
			}
			if height <= 0 {
				height = cfg.Canvas.Height
			}

			start := time.Now()
			data, err := newClient(cfg).FetchMap(cmd.Context(), client.MapQuery{OrganizationID: cfg.OrganizationID})
			if err != nil {
				return err
			}
			m, report, err := normalize.JSON(data)
			if err != nil {
				return err
			}
			m.OrganizationID = cfg.OrganizationID

			store := viewstate.New()
			store.Replace(m)
			store.SetLayoutMode(layoutMode)
			frame := render.BuildFrame(store.View(), geometry.Size{Width: width, Height: height})

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(frame)
			}
			printFrame(out, frame)
			if n := report.Skipped(); n > 0 {
				subtle.Fprintf(out, "  skipped %d invalid records\n", n)
			}
			subtle.Fprintf(out, "  fetched and laid out in %s\n", elapsed(start))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "layout mode: saved, radial or grid (default from config)")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height in pixels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the frame as JSON")
	return cmd
}

func printFrame(w io.Writer, frame domain.Frame) {
	fmt.Fprintf(w, "  %s layout on %gx%g\n\n", brand.Sprint(frame.LayoutMode), frame.Width, frame.Height)

	names := make(map[int64]string, len(frame.Spheres))
	rows := make([][]string, 0, len(frame.Spheres))
	for _, z := range frame.Spheres {
		names[z.SphereID] = z.Name
		rows = append(rows, []string{
			fmt.Sprint(z.SphereID), z.Name,
			fmt.Sprintf("%.1f", z.X), fmt.Sprintf("%.1f", z.Y), fmt.Sprintf("%.1f", z.Radius),
		})
	}
	table(w, []string{"SPHERE", "NAME", "X", "Y", "RADIUS"}, rows)

	rows = rows[:0]
	for _, n := range frame.Nodes {
		rows = append(rows, []string{
			fmt.Sprint(n.NodeID), n.Label, string(n.NodeType), names[n.SphereID],
			fmt.Sprintf("%.1f", n.X), fmt.Sprintf("%.1f", n.Y),
		})
	}
	table(w, []string{"NODE", "LABEL", "TYPE", "SPHERE", "X", "Y"}, rows)

	fmt.Fprintf(w, "  %d spheres, %d nodes, %d edges\n", len(frame.Spheres), len(frame.Nodes), len(frame.Edges))
}

// table prints aligned columns with a subtle header
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, c := range cells {
			fmt.Fprintf(&b, "%-*s  ", widths[i], c)
		}
		return strings.TrimRight(b.String(), " ")
	}
	sep := make([]string, len(headers))
	for i := range headers {
		sep[i] = strings.Repeat("─", widths[i])
	}

	subtle.Fprintln(w, line(headers))
	subtle.Fprintln(w, line(sep))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
	fmt.Fprintln(w)
}
