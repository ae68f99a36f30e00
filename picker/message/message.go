// Package message defines the wire contract between a hosting frame and the
// embedded picker. Hosts (iframe parents, websocket clients, MCP tools)
// import this package to build inbound commands and decode results.
package message

// Type tags carried in the "type" field of every message.
const (
	TypeSetSelectionMode = "vly-set-selection-mode" // host -> picker
	TypeElementSelected  = "vly-element-selected"   // picker -> host
)

// SetSelectionMode toggles selection mode. A missing Enabled field decodes as
// false, which is a disable.
type SetSelectionMode struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// Selection is the single outbound message emitted for a completed pick.
type Selection struct {
	Type                    string    `json:"type"`
	Selector                string    `json:"selector"`
	ReactHierarchy          Hierarchy `json:"reactHierarchy"`
	ReactHierarchyFormatted string    `json:"reactHierarchyFormatted"`
	Image                   string    `json:"image,omitempty"` // data URL, absent when capture failed
}

// Enable returns the inbound command that enters selection mode.
func Enable() SetSelectionMode {
	return SetSelectionMode{Type: TypeSetSelectionMode, Enabled: true}
}

// Disable returns the inbound command that leaves selection mode.
func Disable() SetSelectionMode {
	return SetSelectionMode{Type: TypeSetSelectionMode}
}
