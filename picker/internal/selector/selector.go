// Package selector derives a short human-readable locator for an element.
package selector

import (
	"strings"

	"github.com/hazyhaar/vlypick/picker/dom"
)

// For returns "#id" when the element has an id, "tag.c1.c2" when it has
// classes, and the bare lowercase tag otherwise.
func For(info dom.Info) string {
	if info.ID != "" {
		return "#" + info.ID
	}
	tag := strings.ToLower(info.Tag)
	if classes := strings.Fields(info.Class); len(classes) > 0 {
		return tag + "." + strings.Join(classes, ".")
	}
	return tag
}
