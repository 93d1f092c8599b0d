package entities

// Edge labels.
const (
	EdgeMayTreat    = "may_treat"
	EdgeMayDiagnose = "may_diagnose"
)

type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type Edge struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Label  string `json:"label"`
}

// Graph links extracted entities: diseases to the medications that may treat them and
// lab tests to the diseases they may diagnose.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildGraph creates one node per entity, numbered in sorted category order.
func BuildGraph(r Result) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	ids := map[string]map[string]int{}

	for _, category := range r.Names() {
		ids[category] = map[string]int{}
		for _, item := range r.Categories[category] {
			id := len(g.Nodes)
			g.Nodes = append(g.Nodes, Node{ID: id, Label: item, Type: category})
			ids[category][item] = id
		}
	}

	link := func(from, to, label string) {
		for _, a := range r.Categories[from] {
			for _, b := range r.Categories[to] {
				g.Edges = append(g.Edges, Edge{Source: ids[from][a], Target: ids[to][b], Label: label})
			}
		}
	}
	link(CategoryDiseases, CategoryMedications, EdgeMayTreat)
	link(CategoryLabTests, CategoryDiseases, EdgeMayDiagnose)
	return g
}
