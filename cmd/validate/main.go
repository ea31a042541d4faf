// Command validate checks a marker XML document before it is published:
// every record must transform cleanly, every type should have a style, and
// relative links left after the rewrite are reported. It exits 1 only if a
// record is invalid.
//
// Usage:
//
//	go run ./cmd/validate -in resources/markers.xml [-styles styles.yaml]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/couchcryptid/trail-map-service/internal/adapter/source"
	"github.com/couchcryptid/trail-map-service/internal/config"
	"github.com/couchcryptid/trail-map-service/internal/domain"
)

// relativeLinks are href prefixes that still point at the marker page after
// the ?page_id= rewrite.
var relativeLinks = []string{`href="?`, `href='?`}

// phase tracks pass/fail for a validation phase. Warning phases never fail the run.
type phase struct {
	name    string
	warning bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "marker XML file to validate")
	stylesPath := flag.String("styles", "", "optional styles YAML file")
	linkBase := flag.String("link-base", domain.DefaultLinkBaseURL, "absolute prefix that replaces ?page_id=")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *in, *stylesPath, *linkBase); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, path, stylesPath, linkBase string) int {
	fmt.Fprintln(w, "=== Trail Marker Validation ===")
	fmt.Fprintln(w)

	styles, err := config.LoadStyles(stylesPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(w, "FATAL: open %s: %v\n", path, err)
		return 1
	}
	defer f.Close()

	records, err := source.Decode(f)
	if err != nil {
		fmt.Fprintf(w, "FATAL: decode %s: %v\n", path, err)
		return 1
	}

	return report(w, validate(records, styles, linkBase), records)
}

type result struct {
	features []domain.Feature
	phases   []*phase
}

func validate(records []domain.MarkerRecord, styles domain.StyleSet, linkBase string) result {
	invalid := &phase{name: "Marker records valid"}
	types := &phase{name: "Marker types styled", warning: true}
	links := &phase{name: "Links rewritten", warning: true}

	var features []domain.Feature
	for i, rec := range records {
		f, err := domain.BuildFeature(rec, linkBase)
		if err != nil {
			var dataErr *domain.DataError
			if errors.As(err, &dataErr) {
				invalid.errorf("marker %d: %v", i, dataErr)
				continue
			}
			invalid.errorf("marker %d: unexpected error: %v", i, err)
			continue
		}
		features = append(features, f)

		if lo.SomeBy(relativeLinks, func(prefix string) bool { return strings.Contains(f.Tooltip(), prefix) }) {
			links.errorf("marker %d %q: relative link left in tooltip", i, f.Name())
		}
	}

	unknown := lo.Uniq(lo.FilterMap(features, func(f domain.Feature, _ int) (string, bool) {
		_, known := styles.Lookup(f.Typ())
		return f.Typ(), !known
	}))
	for _, typ := range unknown {
		st, _ := styles.Lookup(typ)
		types.errorf("type %q has no style; it will be shown as %q", typ, st.Label)
	}

	return result{features: features, phases: []*phase{invalid, types, links}}
}

func report(w io.Writer, res result, records []domain.MarkerRecord) int {
	failed := false
	for _, p := range res.phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.passed():
		case p.warning:
			status = fmt.Sprintf("\033[33mWARN (%d)\033[0m", len(p.errors))
		default:
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			failed = true
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d read, %d valid\n", len(records), len(res.features))

	counts := lo.CountValuesBy(res.features, func(f domain.Feature) string { return f.Typ() })
	typs := lo.Keys(counts)
	slices.Sort(typs)
	for _, typ := range typs {
		fmt.Fprintf(w, "  %-20s %d\n", typ, counts[typ])
	}

	for _, p := range res.phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if failed {
		fmt.Fprintln(w, "\nValidation FAILED.")
		return 1
	}
	fmt.Fprintln(w, "\nAll validations passed.")
	return 0
}
