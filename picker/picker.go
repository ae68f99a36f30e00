// Package picker lets a hosting page pick a UI element out of an embedded
// app. The host toggles selection mode with
//
//	{"type": "vly-set-selection-mode", "enabled": true}
//
// While picking, an overlay follows the pointer and highlights the element
// underneath. A click turns that element into one outbound message carrying
// its CSS selector, its component hierarchy and an optional snapshot:
//
//	{"type": "vly-element-selected", "selector": "#save", ...}
//
// Toolbar is the state machine; it runs over any dom.Tree. Service attaches
// toolbars to live Chrome tabs; NewHandler and RegisterMCP expose sessions
// over HTTP, websocket and MCP.
package picker
