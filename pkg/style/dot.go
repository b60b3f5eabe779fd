package style

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-graphviz"
)

// ToDOT renders the catalog as a Graphviz digraph: one box per style with
// edges to the layers it binds, its uniforms and the camera it pins.
func ToDOT(c *Catalog) string {
	var buf bytes.Buffer
	buf.WriteString("digraph styles {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	var layers, cameras []string
	for _, d := range c.Descriptors() {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=box, style=\"rounded,filled\", fillcolor=white];\n", "style:"+d.Name, d.Name)
		if a, ok := d.Setup.(AssignLayers); ok {
			for _, l := range a.Layers {
				if !slices.Contains(layers, l) {
					layers = append(layers, l)
				}
			}
		}
		if d.Camera != "" && !slices.Contains(cameras, d.Camera) {
			cameras = append(cameras, d.Camera)
		}
	}
	for _, l := range layers {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse];\n", "layer:"+l, l)
	}
	for _, cam := range cameras {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=diamond, fillcolor=lightgrey, style=filled];\n", "camera:"+cam, cam)
	}

	buf.WriteString("\n")
	for _, d := range c.Descriptors() {
		from := "style:" + d.Name
		if a, ok := d.Setup.(AssignLayers); ok {
			for _, l := range a.Layers {
				fmt.Fprintf(&buf, "  %q -> %q;\n", from, "layer:"+l)
			}
			for _, u := range a.Uniforms {
				id := "uniform:" + d.Name + "/" + u.Name
				fmt.Fprintf(&buf, "  %q [label=\"%s\\n%g..%g\", shape=note];\n", id, u.Name, u.Min, u.Max)
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", from, id)
			}
		}
		if d.Camera != "" {
			fmt.Fprintf(&buf, "  %q -> %q [style=dotted];\n", from, "camera:"+d.Camera)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
