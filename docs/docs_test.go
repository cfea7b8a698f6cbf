package docs

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type operation struct {
	Responses map[string]json.RawMessage `json:"responses"`
}

type document struct {
	Paths       map[string]map[string]operation `json:"paths"`
	Definitions map[string]json.RawMessage      `json:"definitions"`
}

func readDocument(t *testing.T) (document, string) {
	t.Helper()
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc, raw
}

func TestDoc_ReferencesResolve(t *testing.T) {
	doc, raw := readDocument(t)

	refs := regexp.MustCompile(`#/definitions/([\w.]+)`).FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, refs)
	for _, ref := range refs {
		assert.Contains(t, doc.Definitions, ref[1])
	}
}

// Response codes in the document must match the handler annotations.
func TestDoc_MatchesHandlerAnnotations(t *testing.T) {
	doc, _ := readDocument(t)

	src, err := os.ReadFile("../internal/api/handler/session_handler.go")
	require.NoError(t, err)

	codeRe := regexp.MustCompile(`^// @(?:Success|Failure)\s+(\d{3})`)
	routeRe := regexp.MustCompile(`^// @Router\s+(\S+)\s+\[(\w+)\]`)

	var codes []string
	routes := 0
	for _, line := range strings.Split(string(src), "\n") {
		if m := codeRe.FindStringSubmatch(line); m != nil {
			codes = append(codes, m[1])
			continue
		}
		m := routeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		routes++
		op, ok := doc.Paths[m[1]][m[2]]
		if assert.True(t, ok, "%s %s missing from document", m[2], m[1]) {
			var documented []string
			for code := range op.Responses {
				documented = append(documented, code)
			}
			sort.Strings(documented)
			sort.Strings(codes)
			assert.Equal(t, codes, documented, "%s %s", m[2], m[1])
		}
		codes = nil
	}
	assert.Equal(t, 7, routes)
}
