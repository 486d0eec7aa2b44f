package page

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SourceNode is one element of a UiAutomator hierarchy dump.
type SourceNode struct {
	Text        string
	ResourceID  string
	ContentDesc string
	ClassName   string
	Enabled     bool
	Displayed   bool
	Depth       int
	Children    []*SourceNode
}

// ParsePageSource parses Android page source XML into a flat, document-ordered
// list of nodes.
func ParsePageSource(source string) ([]*SourceNode, error) {
	decoder := xml.NewDecoder(strings.NewReader(source))

	foundHierarchy := false
	var parseNode func() (*SourceNode, error)
	parseNode = func() (*SourceNode, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == "hierarchy" {
					foundHierarchy = true
					continue
				}

				node := &SourceNode{ClassName: t.Name.Local, Enabled: true, Displayed: true}
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "text":
						node.Text = attr.Value
					case "resource-id":
						node.ResourceID = attr.Value
					case "content-desc":
						node.ContentDesc = attr.Value
					case "class":
						node.ClassName = attr.Value
					case "enabled":
						node.Enabled = attr.Value != "false"
					case "displayed":
						node.Displayed = attr.Value != "false"
					}
				}

				for {
					child, err := parseNode()
					if err != nil || child == nil {
						break
					}
					node.Children = append(node.Children, child)
				}
				return node, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var nodes []*SourceNode
	for {
		node, err := parseNode()
		if err != nil {
			if !errors.Is(err, io.EOF) && len(nodes) == 0 {
				return nil, err
			}
			break
		}
		if node != nil {
			nodes = append(nodes, flatten(node, 0)...)
		}
	}

	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}
	return nodes, nil
}

func flatten(node *SourceNode, depth int) []*SourceNode {
	node.Depth = depth
	out := []*SourceNode{node}
	for _, child := range node.Children {
		out = append(out, flatten(child, depth+1)...)
	}
	return out
}

// VisibleTexts returns the non-empty text and content descriptions of
// displayed nodes.
func VisibleTexts(nodes []*SourceNode) []string {
	var texts []string
	for _, n := range nodes {
		if !n.Displayed {
			continue
		}
		if t := strings.TrimSpace(n.Text); t != "" {
			texts = append(texts, t)
		}
		if d := strings.TrimSpace(n.ContentDesc); d != "" && d != n.Text {
			texts = append(texts, d)
		}
	}
	return texts
}
