package preview

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RootPath addresses the document body itself.
const RootPath = ""

// PathSeparator joins child indices in a node path.
const PathSeparator = "-"

var (
	// ErrBadPath is returned for paths that are not dash-joined
	// non-negative integers.
	ErrBadPath = errors.New("malformed element path")

	// ErrPathNotFound is returned when a path addresses no node in the
	// current document, typically because the DOM mutated since the
	// path was computed.
	ErrPathNotFound = errors.New("element path not found")

	// ErrNoBody is returned for documents that parse without a body.
	ErrNoBody = errors.New("document has no body")
)

// Document is a parsed generated-app document supporting path-addressed
// element reads and writes. Not safe for concurrent use; the bridge
// serializes access.
type Document struct {
	root *html.Node
	body *html.Node
}

// ParseDocument parses artifact source into a Document.
func ParseDocument(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	body := findBody(root)
	if body == nil {
		return nil, ErrNoBody
	}
	return &Document{root: root, body: body}, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// elementChild returns the idx-th element child of n, or nil.
func elementChild(n *html.Node, idx int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == idx {
			return c
		}
		i++
	}
	return nil
}

// resolve walks a path from the body down to its node.
func (d *Document) resolve(path string) (*html.Node, error) {
	if path == RootPath {
		return d.body, nil
	}
	cur := d.body
	for _, seg := range strings.Split(path, PathSeparator) {
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
		cur = elementChild(cur, idx)
		if cur == nil {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}
	}
	return cur, nil
}

// OuterHTML returns the serialized form of the node addressed by path.
func (d *Document) OuterHTML(path string) (string, error) {
	n, err := d.resolve(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render element %q: %w", path, err)
	}
	return buf.String(), nil
}

// UpdateElement replaces the node addressed by path with the supplied
// fragment. The root path is special-cased: the body's innerHTML is
// replaced rather than the body element itself.
func (d *Document) UpdateElement(path, fragment string) error {
	n, err := d.resolve(path)
	if err != nil {
		return err
	}

	nodes, err := parseFragment(fragment)
	if err != nil {
		return err
	}

	if path == RootPath {
		for c := d.body.FirstChild; c != nil; {
			next := c.NextSibling
			d.body.RemoveChild(c)
			c = next
		}
		for _, f := range nodes {
			d.body.AppendChild(f)
		}
		return nil
	}

	parent := n.Parent
	for _, f := range nodes {
		parent.InsertBefore(f, n)
	}
	parent.RemoveChild(n)
	return nil
}

// parseFragment parses a body-context HTML fragment into detached nodes.
func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return nodes, nil
}

// Render serializes the whole document back to source text.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}
