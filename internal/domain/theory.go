package domain

// RelIncludes is the hierarchy relation; trees are built only along it.
const RelIncludes = "INCLUDES"

// Entity is a Theory node as presented to clients. Optional numeric fields
// are pointers so an absent year or level stays absent in JSON.
type Entity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	EnName         string `json:"en_name,omitempty"`
	Discipline     string `json:"discipline,omitempty"`
	Description    string `json:"description,omitempty"`
	Level          *int   `json:"level,omitempty"`
	Year           *int   `json:"year,omitempty"`
	Keywords       string `json:"keywords,omitempty"`
	DOI            string `json:"doi,omitempty"`
	CitationGrowth *int   `json:"citation_growth,omitempty"`
}

// Relationship is a directed, typed edge between two entity ids.
type Relationship struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Year        *int   `json:"year,omitempty"`
}

type GraphPayload struct {
	Nodes []Entity       `json:"nodes"`
	Links []Relationship `json:"links"`
}

// EmptyGraph returns a payload whose slices encode as [] rather than null.
func EmptyGraph() *GraphPayload {
	return &GraphPayload{Nodes: []Entity{}, Links: []Relationship{}}
}

type TreeNode struct {
	Entity
	Children []*TreeNode `json:"children"`
}

type SearchItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EnName     string `json:"en_name,omitempty"`
	Discipline string `json:"discipline,omitempty"`
	Level      *int   `json:"level,omitempty"`
	Year       *int   `json:"year,omitempty"`
	Label      string `json:"label"`
}

// Label picks the display name for lang: "en" prefers the English name,
// everything else prefers the primary name.
func (e Entity) Label(lang string) string {
	if lang == "en" {
		if e.EnName != "" {
			return e.EnName
		}
		return e.Name
	}
	if e.Name != "" {
		return e.Name
	}
	return e.EnName
}

func (e Entity) SearchItem(lang string) SearchItem {
	return SearchItem{
		ID:         e.ID,
		Name:       e.Name,
		EnName:     e.EnName,
		Discipline: e.Discipline,
		Level:      e.Level,
		Year:       e.Year,
		Label:      e.Label(lang),
	}
}
