package gateway

import (
	"net/http"
	"net/url"
	"strings"
)

// Capability is one logical backend operation reachable through the gateway.
type Capability struct {
	Name   string
	Method string
	// Path may contain {param} placeholders.
	Path string
}

var (
	CapStartConversation = Capability{Name: "chat.start", Method: http.MethodPost, Path: "/api/chat/start"}
	CapChat              = Capability{Name: "chat", Method: http.MethodPost, Path: "/api/chat"}
	CapDiagnose          = Capability{Name: "diagnose", Method: http.MethodPost, Path: "/api/diagnose"}
	CapEstimate          = Capability{Name: "estimate", Method: http.MethodPost, Path: "/api/estimate"}
	CapCreateDeal        = Capability{Name: "deal.create", Method: http.MethodPost, Path: "/api/deals"}
	CapAddNote           = Capability{Name: "deal.note", Method: http.MethodPost, Path: "/api/deals/{dealId}/notes"}
	CapListShops         = Capability{Name: "shops.list", Method: http.MethodGet, Path: "/api/shops"}
	CapListCases         = Capability{Name: "cases.list", Method: http.MethodGet, Path: "/api/cases"}
	CapUpdateCaseStatus  = Capability{Name: "cases.status", Method: http.MethodPatch, Path: "/api/cases/{caseId}/status"}
)

// Capabilities returns every capability the gateway forwards.
func Capabilities() []Capability {
	return []Capability{
		CapStartConversation,
		CapChat,
		CapDiagnose,
		CapEstimate,
		CapCreateDeal,
		CapAddNote,
		CapListShops,
		CapListCases,
		CapUpdateCaseStatus,
	}
}

// Expand substitutes path parameters, escaping each value.
func (c Capability) Expand(params map[string]string) string {
	path := c.Path
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	return path
}

// RoutePattern returns the path in echo's ":param" syntax.
func (c Capability) RoutePattern() string {
	parts := strings.Split(c.Path, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			parts[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(p, "{"), "}")
		}
	}
	return strings.Join(parts, "/")
}
