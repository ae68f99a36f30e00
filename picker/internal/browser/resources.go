package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockResources fails requests whose resource type is listed. The returned
// router must be stopped when the tab closes.
func blockResources(page *rod.Page, kinds []string) *rod.HijackRouter {
	blocked := blockSet(kinds)
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[resourceKind(h.Request.Type())] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

func blockSet(kinds []string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[strings.ToLower(strings.TrimSpace(k))] = true
	}
	return set
}

// resourceKind maps a CDP resource type to its config name.
func resourceKind(t proto.NetworkResourceType) string {
	switch t {
	case proto.NetworkResourceTypeImage:
		return "images"
	case proto.NetworkResourceTypeFont:
		return "fonts"
	case proto.NetworkResourceTypeMedia:
		return "media"
	case proto.NetworkResourceTypeStylesheet:
		return "stylesheets"
	}
	return strings.ToLower(string(t))
}
