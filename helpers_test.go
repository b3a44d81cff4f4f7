package yamlsplice

import (
	"strings"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pmezard/go-difflib/difflib"
)

func mustParse(t *testing.T, src string, format Format) *Document {
	t.Helper()
	doc, err := Parse([]byte(src), format)
	if err != nil {
		t.Fatalf("Parse error: %v\n%s", err, src)
	}
	return doc
}

func mustDecodePatch(t *testing.T, s string) jsonpatch.Patch {
	t.Helper()
	patch, err := jsonpatch.DecodePatch([]byte(s))
	if err != nil {
		t.Fatalf("jsonpatch decode error: %v", err)
	}
	return patch
}

// mustInsert plans an insert and returns the spliced document.
func mustInsert(t *testing.T, doc *Document, ptr string, fix Fix) string {
	t.Helper()
	res, err := Insert(doc, ptr, fix)
	if err != nil {
		t.Fatalf("Insert(%q) error: %v", ptr, err)
	}
	return res.Apply(doc.Text())
}

func unifiedDiff(before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

func diffStats(diff string) (adds, removes int) {
	for _, line := range strings.Split(diff, "\n") {
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '+':
			if !strings.HasPrefix(line, "+++") {
				adds++
			}
		case '-':
			if !strings.HasPrefix(line, "---") {
				removes++
			}
		}
	}
	return
}

func getLineContaining(s, substr string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}
