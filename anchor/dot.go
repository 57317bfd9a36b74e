package anchor

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// GraphvizAnchorTree dumps the recursion tree of the last search as a dot
// graph, one node per anchor labelled with its interval and chain size.
func (f *AnchorFinder) GraphvizAnchorTree(graphfn string) {
	if f.root == nil {
		log.Fatalf("[GraphvizAnchorTree] no anchor tree, run the search first\n")
	}
	g := gographviz.NewGraph()
	g.SetName("G")
	g.SetDir(true)
	g.SetStrict(false)

	nextID := 0
	var addNode func(a *Anchor) string
	addNode = func(a *Anchor) string {
		id := strconv.Itoa(nextID)
		nextID++
		attr := make(map[string]string)
		attr["shape"] = "record"
		attr["label"] = "\"{(" + strconv.Itoa(a.Interval.Pos1) + "," + strconv.Itoa(a.Interval.Len1) +
			")|(" + strconv.Itoa(a.Interval.Pos2) + "," + strconv.Itoa(a.Interval.Len2) +
			")}|pairs:" + strconv.Itoa(len(a.RareMatchPairs)) + "\""
		g.AddNode("G", id, attr)
		for _, child := range a.Children {
			childID := addNode(child)
			edgeAttr := make(map[string]string)
			edgeAttr["color"] = "Blue"
			g.AddEdge(id, childID, true, edgeAttr)
		}
		return id
	}
	addNode(f.root)

	gfp, err := os.Create(graphfn)
	if err != nil {
		log.Fatalf("[GraphvizAnchorTree] create file: %s failed, err: %v\n", graphfn, err)
	}
	defer gfp.Close()
	gfp.WriteString(g.String())
	fmt.Printf("[GraphvizAnchorTree] %s has been saved\n", graphfn)
}
