package telemetry

import (
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String("method", method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String("path", path)
}

func statusAttr(status int) attribute.KeyValue {
	return attribute.String("status", strconv.Itoa(status))
}

func resultAttr(result string) attribute.KeyValue {
	return attribute.String("result", result)
}

func layerAttr(layer string) attribute.KeyValue {
	return attribute.String("layer", layer)
}

func routeAttr(route string) attribute.KeyValue {
	return attribute.String("route", route)
}

func domainAttr(domain string) attribute.KeyValue {
	return attribute.String("domain", domain)
}

func roleAttr(role string) attribute.KeyValue {
	return attribute.String("role", role)
}

const maxPathSegments = 3

// PathLabel reduces a request path to a bounded label: at most three
// segments, with record IDs collapsed to ":id".
//
//	/api/sales/deals/d-1042 -> /api/sales/deals
//	/api/customers/c1       -> /api/customers/:id
func PathLabel(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) == 1 && segs[0] == "" {
		return "/"
	}
	if len(segs) > maxPathSegments {
		segs = segs[:maxPathSegments]
	}
	for i, s := range segs {
		if strings.ContainsAny(s, "0123456789") {
			segs[i] = ":id"
		}
	}
	return "/" + strings.Join(segs, "/")
}
