package message

// Source tells where a component name came from.
type Source string

const (
	SourceReact Source = "react" // fiber display name
	SourceDOM   Source = "dom"   // data-component attribute or tag name
)

// Component is one level of the inferred component hierarchy.
type Component struct {
	Name     string `json:"name"`
	Tag      string `json:"tag,omitempty"`
	Selector string `json:"selector,omitempty"`
	Source   Source `json:"source"`
}

// Hierarchy lists components outermost first; the last entry is the
// component closest to the selected element.
type Hierarchy []Component
