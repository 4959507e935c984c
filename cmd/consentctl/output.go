package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"consentmgr/internal/consent/models"
	"consentmgr/internal/consent/session"
)

func printView(w io.Writer, v session.View) {
	fmt.Fprintf(w, "visitor: %s\n\n", v.VisitorID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPURPOSE\tCATEGORY\tSTATUS")
	for _, p := range v.Purposes {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", p.ID, p.Icon, p.Name, p.Category, p.Status)
	}
	_ = tw.Flush()
	if v.Stats != nil {
		fmt.Fprintln(w)
		printStats(w, v.Stats)
	}
}

func printStats(w io.Writer, s *models.Stats) {
	fmt.Fprintf(w, "total %d, active %d, inactive %d, rate %.2f%%\n",
		s.TotalConsents, s.ActiveConsents, s.InactiveConsents, s.ConsentRate)
	if len(s.ByPurpose) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PURPOSE\tTOTAL\tACTIVE\tRATE")
	for _, p := range s.ByPurpose {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", p.PurposeName, p.Total, p.Active, p.Rate)
	}
	_ = tw.Flush()
}

func printHistory(w io.Writer, h models.History) {
	if len(h.ConsentHistory) == 0 {
		fmt.Fprintln(w, "no decisions recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PURPOSE\tSTATUS\tUPDATED")
	for _, name := range sortedKeys(h.ConsentHistory) {
		for _, e := range h.ConsentHistory[name] {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, models.StatusOf(e.Status), e.UpdatedAt)
		}
	}
	_ = tw.Flush()
}

func printCheck(w io.Writer, resp models.CheckResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PURPOSE\tSTATUS\tUPDATED")
	for _, name := range sortedKeys(resp.ConsentStatus) {
		r := resp.ConsentStatus[name]
		status, updated := models.StatusUnset, "-"
		if r.Status != nil {
			status = models.StatusOf(*r.Status)
		}
		if r.LastUpdated != nil {
			updated = *r.LastUpdated
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, status, updated)
	}
	_ = tw.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
