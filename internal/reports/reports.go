// Package reports derives the fixed set of cross-tabulated summary tables
// from a merged media-coverage table. Every report run recomputes all seven
// summaries from scratch; nothing is cached between requests.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"mediasov/internal/dataset"
)

// Summary table names, in bundle order. These are the selection keys the UI
// dropdown enumerates.
const (
	NameEntitySOV        = "Entity_SOV"
	NameMonthOnMonth     = "M-O-M SOV Table"
	NamePublications     = "Publication Table"
	NameJournalists      = "Journalist Table"
	NamePublicationTypes = "Pub Type and Entity Table"
	NameClientOnly       = "Journalist writing on Client and not on Comp"
	NameCompetitorOnly   = "Journalist writing on Comp and not on Client"
)

// Names lists the seven summary tables in bundle order.
func Names() []string {
	return []string{
		NameEntitySOV,
		NameMonthOnMonth,
		NamePublications,
		NameJournalists,
		NamePublicationTypes,
		NameClientOnly,
		NameCompetitorOnly,
	}
}

// exportTitles are the comment rows written above each table in the
// exported workbook, in bundle order.
var exportTitles = []string{
	"SOV Table",
	"Month-on-Month Table",
	"Publication Table",
	"Journalist Table All",
	"Pub Type and Entity Table",
	"Journalist writing on Client and not on Comp",
	"Journalist writing on Comp and not on Client",
}

// DefaultEntityInfo is the free-text header block written above the tables
// when the caller supplies none.
const DefaultEntityInfo = "Entity:\n" +
	"Time Period of analysis: 19th April 2023 to 18th April 2024\n" +
	"Source: (Online) Meltwater, Select 100 online publications...\n" +
	"News search: All Articles: entity mentioned at least once\n"

// bureauNews is the catch-all journalist bucket always displayed last in the
// journalist table regardless of its total.
const bureauNews = "Bureau News"

// clientPrefix marks entity columns belonging to the client side of the
// client/competitor partition.
const clientPrefix = "Client-"

// Section pairs one summary table with its workbook title.
type Section struct {
	Name  string
	Title string
	Table *dataset.Table
}

// Bundle is the ordered list of summary sections plus the entity-info header
// block, the unit the exporter serializes into one workbook.
type Bundle struct {
	Sections   []Section
	EntityInfo string
}

// Lookup returns the named summary table.
func (b *Bundle) Lookup(name string) (*dataset.Table, bool) {
	for _, s := range b.Sections {
		if s.Name == name {
			return s.Table, true
		}
	}
	return nil, false
}

// Generator computes report bundles from merged coverage tables.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger.With(slog.String("component", "report_generator"))}
}

// Generate computes all seven summary tables, in order. The first failing
// builder aborts the run; errors are terminal for the request.
func (g *Generator) Generate(ctx context.Context, t *dataset.Table, entityInfo string) (*Bundle, error) {
	g.logger.InfoContext(ctx, "generating report bundle",
		slog.Int("input_rows", t.NumRows()),
		slog.Int("input_columns", len(t.Columns)))

	if entityInfo == "" {
		entityInfo = DefaultEntityInfo
	}

	builders := []func(*dataset.Table) (*dataset.Table, error){
		EntitySOV,
		MonthOnMonth,
		Publications,
		Journalists,
		PublicationTypes,
		ClientOnlyJournalists,
		CompetitorOnlyJournalists,
	}
	names := Names()

	bundle := &Bundle{EntityInfo: entityInfo}
	for i, build := range builders {
		table, err := build(t)
		if err != nil {
			g.logger.ErrorContext(ctx, "summary table failed",
				slog.String("table", names[i]),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("build %s: %w", names[i], err)
		}
		bundle.Sections = append(bundle.Sections, Section{
			Name:  names[i],
			Title: exportTitles[i],
			Table: table,
		})
	}

	g.logger.InfoContext(ctx, "report bundle generated",
		slog.Int("sections", len(bundle.Sections)))
	return bundle, nil
}

// EntitySOV counts rows per Entity and appends a Total row. The % column is
// each entity's share of the non-total sum, rounded to two decimals; the
// Total row's % is forced to exactly 100.
func EntitySOV(t *dataset.Table) (*dataset.Table, error) {
	idx, err := t.ColumnIndex("Entity")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, row := range t.Rows {
		entity := dataset.CellString(row[idx])
		if entity == "" {
			continue
		}
		counts[entity]++
	}
	entities := make([]string, 0, len(counts))
	total := 0
	for e, n := range counts {
		entities = append(entities, e)
		total += n
	}
	sort.Strings(entities)

	out := dataset.NewTable("Entity", "News Count", "%")
	for _, e := range entities {
		out.AppendRow(e, counts[e], round2(float64(counts[e])/float64(total)*100))
	}
	out.AppendRow("Total", total, float64(100))
	return out, nil
}

// MonthOnMonth cross-tabulates calendar month against Entity with Total
// margins on both axes. Dates are normalized to month granularity first; an
// unparseable non-empty date aborts the report.
func MonthOnMonth(t *dataset.Table) (*dataset.Table, error) {
	di, err := t.ColumnIndex("Date")
	if err != nil {
		return nil, err
	}
	ei, err := t.ColumnIndex("Entity")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int)
	entitySet := make(map[string]struct{})
	for _, row := range t.Rows {
		date := dataset.CellString(row[di])
		if date == "" {
			continue
		}
		// Every non-empty date must normalize, even on rows the pivot later
		// drops for lacking an entity.
		month, err := normalizeMonth(date)
		if err != nil {
			return nil, err
		}
		entity := dataset.CellString(row[ei])
		if entity == "" {
			continue
		}
		if counts[month] == nil {
			counts[month] = make(map[string]int)
		}
		counts[month][entity]++
		entitySet[entity] = struct{}{}
	}

	entities := make([]string, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	out := dataset.NewTable(append(append([]string{"Month"}, entities...), "Total")...)
	for _, m := range months {
		cells := make([]any, 0, len(out.Columns))
		cells = append(cells, m)
		rowTotal := 0
		for _, e := range entities {
			cells = append(cells, counts[m][e])
			rowTotal += counts[m][e]
		}
		cells = append(cells, rowTotal)
		out.Rows = append(out.Rows, cells)
	}
	dataset.AddTotalRow(out, "Total")
	return out, nil
}

// Publications cross-tabulates Publication Name against Entity with a Total
// column, rows sorted descending by Total, then a GrandTotal row.
func Publications(t *dataset.Table) (*dataset.Table, error) {
	return keyedEntityPivot(t, "Publication Name")
}

// PublicationTypes cross-tabulates Publication Type against Entity, with the
// same margins and ordering as Publications.
func PublicationTypes(t *dataset.Table) (*dataset.Table, error) {
	return keyedEntityPivot(t, "Publication Type")
}

func keyedEntityPivot(t *dataset.Table, keyCol string) (*dataset.Table, error) {
	ct, err := dataset.Crosstab(t, keyCol, "Entity")
	if err != nil {
		return nil, err
	}
	dataset.AddTotalColumn(ct, "Total")
	if err := dataset.SortByIntColumnDesc(ct, "Total"); err != nil {
		return nil, err
	}
	dataset.AddTotalRow(ct, "GrandTotal")
	return ct, nil
}

// Journalists builds the journalist table: multi-journalist rows are
// exploded first, then Journalist is cross-tabulated against Entity, each
// journalist's first-seen Publication Name is joined back as the second
// column, and rows sort descending by Total with "Bureau News" pinned last.
// A GrandTotal row and a duplicate Total row close the table; both hold the
// column sums over the data rows.
func Journalists(t *dataset.Table) (*dataset.Table, error) {
	exploded, err := dataset.ExplodeColumn(t, "Journalist")
	if err != nil {
		return nil, err
	}
	pi, err := exploded.ColumnIndex("Publication Name")
	if err != nil {
		return nil, err
	}
	ji, err := exploded.ColumnIndex("Journalist")
	if err != nil {
		return nil, err
	}

	// First occurrence wins on duplicate journalist names.
	firstPub := make(map[string]string)
	for _, row := range exploded.Rows {
		j := dataset.CellString(row[ji])
		if j == "" {
			continue
		}
		if _, ok := firstPub[j]; !ok {
			firstPub[j] = dataset.CellString(row[pi])
		}
	}

	ct, err := dataset.Crosstab(exploded, "Journalist", "Entity")
	if err != nil {
		return nil, err
	}
	dataset.AddTotalColumn(ct, "Total")
	if err := dataset.SortByIntColumnDesc(ct, "Total"); err != nil {
		return nil, err
	}

	// Pull the aggregator bucket out and force it to the last data row.
	var kept, bureau [][]any
	for _, row := range ct.Rows {
		if dataset.CellString(row[0]) == bureauNews {
			bureau = append(bureau, row)
		} else {
			kept = append(kept, row)
		}
	}
	ct.Rows = append(kept, bureau...)

	dataset.AddTotalRow(ct, "GrandTotal")

	// Reposition Publication Name as the second column.
	out := dataset.NewTable(append([]string{"Journalist", "Publication Name"}, ct.Columns[1:]...)...)
	for i, row := range ct.Rows {
		name := dataset.CellString(row[0])
		pub := ""
		if i < len(ct.Rows)-1 { // margin rows carry no publication
			pub = firstPub[name]
		}
		cells := append([]any{name, pub}, row[1:]...)
		out.Rows = append(out.Rows, cells)
	}

	// The closing Total row duplicates GrandTotal; it is a known redundancy
	// of the report layout, not a second aggregate.
	grand := out.Rows[len(out.Rows)-1]
	dup := append([]any(nil), grand...)
	dup[0] = "Total"
	out.Rows = append(out.Rows, dup)
	return out, nil
}

// ClientOnlyJournalists selects journalists whose coverage counts are
// nonzero across "Client-" entity columns and zero across all other entity
// columns, sorted descending by Total.
func ClientOnlyJournalists(t *dataset.Table) (*dataset.Table, error) {
	return journalistPartition(t, true)
}

// CompetitorOnlyJournalists is the symmetric complement: nonzero competitor
// counts and zero client counts.
func CompetitorOnlyJournalists(t *dataset.Table) (*dataset.Table, error) {
	return journalistPartition(t, false)
}

// journalistPartition filters a Journalist x Entity crosstab (with Total
// margins) by the client/competitor column split. With no "Client-" columns
// the client-positive mask is vacuously false and the client-zero mask
// vacuously true; the asymmetry is intentional and must be preserved.
func journalistPartition(t *dataset.Table, clientSide bool) (*dataset.Table, error) {
	exploded, err := dataset.ExplodeColumn(t, "Journalist")
	if err != nil {
		return nil, err
	}
	ct, err := dataset.Crosstab(exploded, "Journalist", "Entity")
	if err != nil {
		return nil, err
	}
	dataset.AddTotalColumn(ct, "Total")
	dataset.AddTotalRow(ct, "Total")

	var clientIdx, compIdx []int
	for i, c := range ct.Columns {
		if i == 0 || c == "Total" {
			continue
		}
		if strings.HasPrefix(c, clientPrefix) {
			clientIdx = append(clientIdx, i)
		} else {
			compIdx = append(compIdx, i)
		}
	}

	out := dataset.NewTable(ct.Columns...)
	for _, row := range ct.Rows {
		clientSum := sumAt(row, clientIdx)
		compSum := sumAt(row, compIdx)

		clientPositive := len(clientIdx) > 0 && clientSum != 0
		clientZero := len(clientIdx) == 0 || clientSum == 0
		compPositive := len(compIdx) > 0 && compSum != 0
		compZero := len(compIdx) == 0 || compSum == 0

		selected := clientPositive && compZero
		if !clientSide {
			selected = clientZero && compPositive
		}
		if selected {
			out.Rows = append(out.Rows, append([]any(nil), row...))
		}
	}
	if err := dataset.SortByIntColumnDesc(out, "Total"); err != nil {
		return nil, err
	}
	return out, nil
}

func sumAt(row []any, idx []int) int {
	sum := 0
	for _, i := range idx {
		sum += dataset.SumIntCells(row[i : i+1])
	}
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
