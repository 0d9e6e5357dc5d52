package infra

import (
	"fmt"
	"strings"
)

// Render formats the values as "[1, 2, 2, 5]", "[5]" or "[]".
func Render[T any](values []T) string {
	builder := strings.Builder{}
	builder.WriteString("[")
	for i, v := range values {
		if i > 0 {
			builder.WriteString(", ")
		}
		_, _ = fmt.Fprint(&builder, v)
	}
	builder.WriteString("]")
	return builder.String()
}
