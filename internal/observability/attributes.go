// Package observability provides metrics and logging utilities.
package observability

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMethod = "method"
	attrPath   = "path"
	attrStatus = "status"
	attrImage  = "image"
	attrState  = "state"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	// Normalize paths with names to reduce cardinality
	// /v1/jobs/abc123 -> /v1/jobs/{name}
	return attribute.String(attrPath, normalizePath(path))
}

func statusAttr(code int) attribute.KeyValue {
	// Group status codes to reduce cardinality
	// 200-299 -> 2xx, 400-499 -> 4xx, 500-599 -> 5xx
	group := fmt.Sprintf("%dxx", code/100)
	return attribute.String(attrStatus, group)
}

func imageAttr(image string) attribute.KeyValue {
	return attribute.String(attrImage, image)
}

func statusNameAttr(status string) attribute.KeyValue {
	return attribute.String(attrState, status)
}

// normalizePath replaces dynamic path segments with placeholders.
func normalizePath(path string) string {
	for _, prefix := range []string{"/v1/jobs/", "/v1/pods/"} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			rest := path[len(prefix):]
			if strings.HasSuffix(rest, "/logs") {
				return prefix + "{name}/logs"
			}
			if strings.HasSuffix(rest, "/storage") {
				return prefix + "{name}/storage"
			}
			return prefix + "{name}"
		}
	}
	return path
}
