package render

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// svgImage is a parsed compiler output: the svg element and its intrinsic
// size in points. A zero size means the compiler reported none.
type svgImage struct {
	node   *html.Node
	width  float64
	height float64
}

func parseSVG(data []byte) (*svgImage, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(data), ctx)
	if err != nil {
		return nil, err
	}

	var svg *html.Node
	for _, n := range nodes {
		if svg = findSVG(n); svg != nil {
			break
		}
	}
	if svg == nil {
		return nil, ErrInvalidSVG
	}

	w, h := measure(svg)
	return &svgImage{node: svg, width: w, height: h}, nil
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "svg" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

// measure reads the intrinsic size from data-width/data-height, then the
// width/height attributes, then the viewBox.
func measure(n *html.Node) (float64, float64) {
	w := dimension(getAttr(n, "data-width"))
	h := dimension(getAttr(n, "data-height"))
	if w <= 0 {
		w = dimension(getAttr(n, "width"))
	}
	if h <= 0 {
		h = dimension(getAttr(n, "height"))
	}
	if w <= 0 || h <= 0 {
		if vw, vh, ok := viewBox(getAttr(n, "viewbox")); ok {
			if w <= 0 {
				w = vw
			}
			if h <= 0 {
				h = vh
			}
		}
	}
	return w, h
}

func dimension(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "pt")
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func viewBox(s string) (float64, float64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(fields[2], 64)
	h, errH := strconv.ParseFloat(fields[3], 64)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

// getAttr looks a key up case-insensitively; the HTML parser may or may not
// restore SVG camel case (viewBox).
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, key) {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// sizeEm fixes the graphic's size in em units.
func (s *svgImage) sizeEm(width, height float64) {
	setAttr(s.node, "width", formatEm(width))
	setAttr(s.node, "height", formatEm(height))
}

// sizeFluid scales the graphic to its container. The viewBox keeps the
// aspect ratio; one is synthesized from the measured size when missing.
func (s *svgImage) sizeFluid() {
	if getAttr(s.node, "viewbox") == "" && s.width > 0 && s.height > 0 {
		setAttr(s.node, "viewBox", "0 0 "+formatFloat(s.width)+" "+formatFloat(s.height))
	}
	setAttr(s.node, "width", "100%")
	removeAttr(s.node, "height")
}

func (s *svgImage) render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, s.node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// toEm converts a dimension to em at the given reference size, rounded to
// three decimals.
func toEm(dim, referenceSize float64) float64 {
	return math.Round(dim/referenceSize*1000) / 1000
}

func formatEm(v float64) string {
	return formatFloat(v) + "em"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
