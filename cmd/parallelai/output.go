package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/upb/parallelai/internal/observability"
	"github.com/upb/parallelai/services/aggregate"
	"github.com/upb/parallelai/services/keystore"
	"github.com/upb/parallelai/services/query"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTargeted(w io.Writer, r *aggregate.TargetedResult) {
	if !r.Success {
		fmt.Fprintf(w, "%s failed [%s]: %s\n", r.Provider, r.ErrorCategory, r.Error)
		return
	}
	fmt.Fprintf(w, "%s (%s, %dms)\n\n%s\n", r.Provider, r.Model, r.LatencyMs, r.Response)
}

func printBroadcast(w io.Writer, r *aggregate.BroadcastResult) {
	if !r.Success {
		fmt.Fprintf(w, "Error [%s]: %s\n", r.ErrorCategory, r.Error)
		return
	}

	for _, id := range sortedIDs(r.Results) {
		res := r.Results[id]
		fmt.Fprintf(w, "=== %s ===\n", id)
		if !res.Success {
			fmt.Fprintf(w, "failed [%s]: %s\n\n", res.ErrorCategory, res.Error)
			continue
		}
		fmt.Fprintln(w, res.Response)
		if res.Truncated {
			fmt.Fprintln(w, "[truncated]")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d provider(s) queried\n", r.TotalProviders)
}

func printProviders(w io.Writer, statuses []query.ProviderStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tDEFAULT MODEL\tKEY\tENV VAR")
	for _, s := range statuses {
		key := "missing"
		if s.Configured {
			key = "set"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.DefaultModel, key, keystore.EnvVarName(s.Name))
	}
	return tw.Flush()
}

func printStatus(w io.Writer, r *aggregate.BroadcastResult, stats []observability.ProviderStats) {
	if !r.Success {
		fmt.Fprintf(w, "Error [%s]: %s\n", r.ErrorCategory, r.Error)
		return
	}

	latency := make(map[string]float64, len(stats))
	for _, s := range stats {
		latency[s.Provider] = s.AvgLatencyMs
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSTATUS\tLATENCY")
	healthy := 0
	for _, id := range sortedIDs(r.Results) {
		res := r.Results[id]
		status := "ok"
		if res.Success {
			healthy++
		} else {
			status = string(res.ErrorCategory)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0fms\n", id, status, latency[id])
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d/%d providers responding\n", healthy, r.TotalProviders)
}

func sortedIDs(results map[string]aggregate.ProviderResult) []string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
