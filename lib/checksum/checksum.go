// Package checksum provides deterministic, order-independent hashing of
// loosely-typed records. Two records that contain the same semantic content
// hash to the same value no matter what order their keys or list elements
// arrive in.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record hashes the semantic content of a record. Keys listed in exclude are
// skipped at the top level, which is how callers drop volatile fields like
// internal portal ids before change detection.
func Record(record map[string]any, exclude ...string) string {
	excluded := make(map[string]struct{}, len(exclude))
	for _, k := range exclude {
		excluded[k] = struct{}{}
	}

	filtered := make(map[string]any, len(record))
	for k, v := range record {
		if _, skip := excluded[k]; skip {
			continue
		}
		filtered[k] = v
	}

	sum := sha256.Sum256([]byte(canonicalize(filtered)))
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes a flat set of job-defining parameters. It is used to
// match a rerun to a prior attempt's checkpoint, so it must be stable across
// processes and insensitive to field ordering.
func Fingerprint(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		out.WriteString(k)
		out.WriteByte('=')
		out.WriteString(fields[k])
		out.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(out.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalize renders a value into a stable textual form: map keys are
// sorted, list elements are sorted by their own canonical form. Scalar
// rendering goes through strconv where the default %v formatting is
// ambiguous.
func canonicalize(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out strings.Builder
		out.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				out.WriteByte(',')
			}
			out.WriteString(strconv.Quote(k))
			out.WriteByte(':')
			out.WriteString(canonicalize(v[k]))
		}
		out.WriteByte('}')
		return out.String()
	case []any:
		elements := make([]string, len(v))
		for i, e := range v {
			elements[i] = canonicalize(e)
		}
		sort.Strings(elements)
		return "[" + strings.Join(elements, ",") + "]"
	case []map[string]any:
		elements := make([]string, len(v))
		for i, e := range v {
			elements[i] = canonicalize(e)
		}
		sort.Strings(elements)
		return "[" + strings.Join(elements, ",") + "]"
	case []string:
		elements := make([]string, len(v))
		for i, e := range v {
			elements[i] = strconv.Quote(e)
		}
		sort.Strings(elements)
		return "[" + strings.Join(elements, ",") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
