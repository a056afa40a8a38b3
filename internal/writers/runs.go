// internal/writers/runs.go
package writers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mavekit/internal/jsonlutil"
	"mavekit/internal/jsonutil"
	"mavekit/pkg/api"
)

func init() {
	RegisterRuns("text", writeRunsText)
	RegisterRuns("json", func(w io.Writer, runs []api.RunV1) error {
		if runs == nil {
			runs = []api.RunV1{}
		}
		return jsonutil.EncodePretty(w, runs)
	})
	RegisterRuns("jsonl", func(w io.Writer, runs []api.RunV1) error {
		in, done := StartRunJSONLWriter(w, len(runs))
		for _, r := range runs {
			in <- r
		}
		close(in)
		return <-done
	})
}

// StartRunJSONLWriter streams each run record as one JSON line (v1).
func StartRunJSONLWriter(out io.Writer, bufSize int) (chan<- api.RunV1, <-chan error) {
	return jsonlutil.Start[api.RunV1](out, bufSize,
		func(enc *json.Encoder, r api.RunV1) error { return enc.Encode(r) },
		IsBrokenPipe,
	)
}

func writeRunsText(w io.Writer, runs []api.RunV1) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTEP\tSTATUS\tSTARTED\tDURATION\tMETRICS")
	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Step, r.Status, r.StartedAt.Local().Format(time.DateTime), dur, metricsString(r.Metrics))
	}
	return tw.Flush()
}

func metricsString(m map[string]float64) string {
	if len(m) == 0 {
		return "-"
	}
	ks := keys(m)
	parts := make([]string, 0, len(ks))
	for _, k := range ks {
		parts = append(parts, fmt.Sprintf("%s=%.4g", k, m[k]))
	}
	return strings.Join(parts, " ")
}
