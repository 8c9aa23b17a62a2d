// Package report describes an allocated opcode table for people: a tier tree
// for the terminal, a drift diff against an existing header, and an HTML page
// of charts.
package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xlab/treeprint"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
	"golang.org/x/crypto/blake2b"

	"github.com/colorfulnotion/opcodeh/opcodes"
)

// tierOrder is the allocation order with placeholders last.
var tierOrder = append(append([]opcodes.Tier(nil), opcodes.Tiers...), opcodes.TierUnused)

// AllocationTree lists every row under the tier that numbered it.
func AllocationTree(t *opcodes.Table) string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("opcodes: max=%d maxjump=%d", t.MaxValue, t.MaxJump))

	byTier := make(map[opcodes.Tier][]opcodes.Entry)
	for _, e := range t.Entries {
		byTier[e.Tier()] = append(byTier[e.Tier()], e)
	}
	for _, tier := range tierOrder {
		rows := byTier[tier]
		if len(rows) == 0 {
			continue
		}
		branch := tree.AddBranch(fmt.Sprintf("%s (%d)", tier, len(rows)))
		for _, e := range rows {
			branch.AddNode(fmt.Sprintf("%s = %d", e.Name, e.Value))
		}
	}
	if len(t.Groups) > 0 {
		groups := tree.AddBranch(fmt.Sprintf("groups (%d)", len(t.Groups)))
		for _, g := range t.Groups {
			groups.AddNode(fmt.Sprintf("%v", g.Names()))
		}
	}
	return tree.String()
}

// Digest is the hex blake2b-256 of b. Two headers with equal digests are
// byte-identical.
func Digest(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Drift compares two name to value assignments and returns an ASCII diff of
// the changes. changed is false when they agree.
func Drift(old, updated map[string]int) (diff string, changed bool, err error) {
	left, err := json.Marshal(old)
	if err != nil {
		return "", false, err
	}
	right, err := json.Marshal(updated)
	if err != nil {
		return "", false, err
	}
	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return "", false, fmt.Errorf("diff assignments: %w", err)
	}
	if !delta.Modified() {
		return "", false, nil
	}

	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return "", true, err
	}
	asciiFmt := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{})
	diff, err = asciiFmt.Format(delta)
	if err != nil {
		return "", true, fmt.Errorf("format drift: %w", err)
	}
	return diff, true, nil
}

// TierCounts returns the number of rows per tier in allocation order,
// placeholders last.
func TierCounts(t *opcodes.Table) ([]string, []int) {
	counts := make(map[opcodes.Tier]int)
	for _, e := range t.Entries {
		counts[e.Tier()]++
	}
	var names []string
	var values []int
	for _, tier := range tierOrder {
		names = append(names, tier.String())
		values = append(values, counts[tier])
	}
	return names, values
}

// FlagCounts returns how many opcodes carry each property bit.
func FlagCounts(t *opcodes.Table) ([]string, []int) {
	names := []string{"jump", "in1", "in2", "in3", "out2", "out3", "ncycle", "jump0"}
	bits := []uint8{opcodes.FlagJump, opcodes.FlagIn1, opcodes.FlagIn2, opcodes.FlagIn3,
		opcodes.FlagOut2, opcodes.FlagOut3, opcodes.FlagNCycle, opcodes.FlagJump0}
	values := make([]int, len(bits))
	for _, w := range t.Bitvector() {
		for i, b := range bits {
			if w&b != 0 {
				values[i]++
			}
		}
	}
	return names, values
}

func barChart(title, subtitle string, names []string, values []int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Name: names[i], Value: v}
	}
	bar.SetXAxis(names).AddSeries("opcodes", data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

// WriteHTML renders the tier and property charts of t as a standalone page.
func WriteHTML(w io.Writer, t *opcodes.Table) error {
	subtitle := fmt.Sprintf("%d rows, largest jump opcode %d", len(t.Entries), t.MaxJump)
	tierNames, tierValues := TierCounts(t)
	flagNames, flagValues := FlagCounts(t)

	page := components.NewPage()
	page.PageTitle = "mkopcodeh allocation"
	page.AddCharts(
		barChart("Opcodes per tier", subtitle, tierNames, tierValues),
		barChart("Opcodes per property", subtitle, flagNames, flagValues),
	)
	return page.Render(w)
}
