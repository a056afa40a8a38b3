// internal/arch/arch_test.go
package arch

import (
	"bytes"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"testing"
)

type pkg struct {
	ImportPath string
	Imports    []string
	Standard   bool
}

const mod = "mavekit/"

// under reports whether path is pkg or one of its subpackages.
func under(path, pkg string) bool {
	return path == pkg || strings.HasPrefix(path, pkg+"/")
}

func TestImportBoundaries(t *testing.T) {
	cmd := exec.Command("go", "list", "-json", "./...")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)

	front := []string{"mavekit/internal/appcore", "mavekit/internal/app", "mavekit/cmd"}
	with := func(extra ...string) []string { return append(extra, front...) }

	bans := map[string][]string{
		"mavekit/pkg/api": {"mavekit/internal"},
		"mavekit/internal/alphabet": with(
			"mavekit/internal/predictor", "mavekit/internal/mave", "mavekit/internal/surrogate",
			"mavekit/internal/logo", "mavekit/internal/zoo",
		),
		"mavekit/internal/npy": with("mavekit/internal/mave", "mavekit/internal/alphabet"),
		"mavekit/internal/predictor": with(
			"mavekit/internal/mave", "mavekit/internal/surrogate", "mavekit/internal/zoo",
			"mavekit/internal/server", "mavekit/internal/store",
		),
		"mavekit/internal/mave": with(
			"mavekit/internal/surrogate", "mavekit/internal/zoo", "mavekit/internal/server",
			"mavekit/internal/writers", "mavekit/internal/store",
		),
		"mavekit/internal/logo": with(
			"mavekit/internal/surrogate", "mavekit/internal/mave", "mavekit/internal/predictor",
			"mavekit/internal/writers", "mavekit/internal/store",
		),
		"mavekit/internal/surrogate": with(
			"mavekit/internal/predictor", "mavekit/internal/zoo", "mavekit/internal/server",
			"mavekit/internal/writers", "mavekit/internal/store",
		),
		"mavekit/internal/writers": with("mavekit/internal/surrogate", "mavekit/internal/store", "mavekit/internal/mave"),
		"mavekit/internal/store":   with("mavekit/internal/surrogate", "mavekit/internal/mave", "mavekit/internal/writers"),
		"mavekit/internal/server":  with("mavekit/internal/surrogate", "mavekit/internal/mave", "mavekit/internal/store"),
	}

	var violations []string
	for {
		var p pkg
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.HasPrefix(p.ImportPath, mod) {
			continue
		}
		imp := p.ImportPath
		for prefix, forbidden := range bans {
			if !under(imp, prefix) {
				continue
			}
			for _, dep := range p.Imports {
				if !strings.HasPrefix(dep, mod) {
					continue
				}
				for _, ban := range forbidden {
					if under(dep, ban) {
						violations = append(violations, imp+" → "+dep)
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n  %s", strings.Join(violations, "\n  "))
	}
}
