// Package doctor runs health checks over a battle setup: required tools,
// detected toolchains, settings and the launchpad document itself.
package doctor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one checked item.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckItem is one line of a check, e.g. a single tool or file.
type CheckItem struct {
	Label  string `json:"label"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
	// AutoFix marks problems that `battle doctor --autofix` repairs.
	AutoFix bool `json:"autofix,omitempty"`
}

// Result groups the items produced by one Check.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll runs checks concurrently. Results keep the order of checks. A check
// that has not started when ctx ends reports a single failed item.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, check := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: check.Name(), Items: []CheckItem{fail("skipped", err.Error())}}
				return nil
			}
			results[i] = check.Run(gctx)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Tally counts items by status across results.
type Tally struct {
	Passed  int `json:"passed"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
	Fixable int `json:"fixable"`
}

// Healthy reports whether no item failed.
func (t Tally) Healthy() bool { return t.Failed == 0 }

// Count tallies results. Fixable counts warned or failed items with AutoFix.
func Count(results []Result) Tally {
	var t Tally
	for _, r := range results {
		for _, item := range r.Items {
			switch item.Status {
			case StatusPass:
				t.Passed++
				continue
			case StatusWarn:
				t.Warned++
			case StatusFail:
				t.Failed++
			}
			if item.AutoFix {
				t.Fixable++
			}
		}
	}
	return t
}

func pass(label, detail string) CheckItem {
	return CheckItem{Label: label, Status: StatusPass, Detail: detail}
}

func warn(label, detail string) CheckItem {
	return CheckItem{Label: label, Status: StatusWarn, Detail: detail}
}

func fail(label, detail string) CheckItem {
	return CheckItem{Label: label, Status: StatusFail, Detail: detail}
}
