package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// Format is an image format supported by RenderImage.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrUnsupportedFormat is returned for an image format RenderImage cannot
// produce.
var ErrUnsupportedFormat = errors.New("workflow: unsupported image format")

// ParseFormat resolves an image format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// RenderImage lays g out top to bottom with graphviz and returns the encoded
// image. Nodes are filled by success rate.
func RenderImage(ctx context.Context, g *Graph, format Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("workflow: create graphviz: %w", err)
	}
	defer gv.Close()

	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("workflow: create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.TBRank)

	gvNodes := make(map[string]*cgraph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		gvNode, err := graph.CreateNodeByName(n.TaskID)
		if err != nil {
			return nil, fmt.Errorf("workflow: create node %s: %w", n.TaskID, err)
		}
		gvNode.SetLabel(nodeLabel(n))
		gvNode.SetShape(cgraph.BoxShape)
		applySuccessColor(gvNode, n.SuccessRate())
		gvNodes[n.TaskID] = gvNode
	}

	for _, e := range g.Edges() {
		from, to := gvNodes[e.From], gvNodes[e.To]
		if from == nil || to == nil {
			continue
		}
		if _, err := graph.CreateEdgeByName("", from, to); err != nil {
			return nil, fmt.Errorf("workflow: create edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("workflow: render %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

func nodeLabel(n *Node) string {
	agent := n.AgentID()
	if agent == "" {
		agent = unknownAgent
	}
	return fmt.Sprintf("%s\nAgent: %s\nTokens: %d\nCost: $%.6f\nSuccess: %.1f%%",
		n.TaskID, agent, n.TotalTokens(), n.TotalCost(), n.SuccessRate()*100)
}

// applySuccessColor fills a node green when every block finished, red when
// none did and amber in between.
func applySuccessColor(gvNode *cgraph.Node, rate float64) {
	gvNode.SetStyle(cgraph.FilledNodeStyle)
	gvNode.SetFontColor("white")
	switch {
	case rate >= 1:
		gvNode.SetFillColor("#2d6a2d")
	case rate <= 0:
		gvNode.SetFillColor("#8b1a1a")
	default:
		gvNode.SetFillColor("#b7791a")
	}
}
