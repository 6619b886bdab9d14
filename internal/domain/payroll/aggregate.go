package payroll

import (
	"math"
	"sort"
	"strings"
	"time"
)

// varianceEpsilon is the tolerance below which per-entry and weekly costs
// are considered to agree.
const varianceEpsilon = 0.01

// LockChecker reports whether the period owning a record has been closed
// out. Closeout itself is an external process; the aggregator only surfaces
// the flag.
type LockChecker func(projectID string, workDate time.Time) bool

// GroupNode is one node in an aggregation view. RecordIDs carries the
// membership set used by bulk select/approve/reject/bill operations.
type GroupNode struct {
	Key             string        `json:"key"`
	Name            string        `json:"name"`
	RecordIDs       []string      `json:"recordIds"`
	EntryCount      int           `json:"entryCount"`
	Hours           float64       `json:"hours"`
	Cost            float64       `json:"cost"`
	Totals          *PersonTotals `json:"totals,omitempty"`
	Variance        float64       `json:"variance,omitempty"`
	VarianceFlagged bool          `json:"varianceFlagged,omitempty"`
	Locked          bool          `json:"locked"`
	Children        []*GroupNode  `json:"children,omitempty"`
}

// ViewOptions selects the grouping shape and explicit sort for a view.
type ViewOptions struct {
	View       string
	SortBy     string
	Descending bool
}

// BuildView groups worked-hour records into the requested view. Grouping
// itself preserves insertion order; ordering guarantees come only from the
// explicit sort applied afterwards.
func BuildView(records []WorkedHourRecord, opts ViewOptions, rates map[string]float64, locked LockChecker, settings Settings) ([]*GroupNode, error) {
	var nodes []*GroupNode
	switch opts.View {
	case ViewByPerson, "":
		nodes = groupByPerson(records, rates, locked, settings)
	case ViewProjectPersonDay:
		nodes = groupTwoLevel(records, projectKey, personKey, rates, locked, settings)
	case ViewPersonProjectDay:
		nodes = groupTwoLevel(records, personKey, projectKey, rates, locked, settings)
	default:
		return nil, ErrUnknownView
	}

	sortNodes(nodes, opts)
	for _, node := range nodes {
		sortNodes(node.Children, opts)
	}
	return nodes, nil
}

type keyFunc func(WorkedHourRecord) (id, name string)

func projectKey(r WorkedHourRecord) (string, string) {
	name := r.ProjectName
	if name == "" {
		name = r.ProjectID
	}
	return r.ProjectID, name
}

func personKey(r WorkedHourRecord) (string, string) {
	name := r.PersonName
	if name == "" {
		name = r.PersonID
	}
	return r.PersonID, name
}

func groupByPerson(records []WorkedHourRecord, rates map[string]float64, locked LockChecker, settings Settings) []*GroupNode {
	order := []string{}
	grouped := map[string][]WorkedHourRecord{}
	names := map[string]string{}

	for _, record := range records {
		id, name := personKey(record)
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
			names[id] = name
		}
		grouped[id] = append(grouped[id], record)
	}

	nodes := make([]*GroupNode, 0, len(order))
	for _, id := range order {
		nodes = append(nodes, personNode(id, names[id], grouped[id], rates[id], locked, settings))
	}
	return nodes
}

func personNode(id, name string, records []WorkedHourRecord, currentRate float64, locked LockChecker, settings Settings) *GroupNode {
	classified := ClassifyWeekWithVariance(records, currentRate, settings)

	node := &GroupNode{
		Key:             id,
		Name:            name,
		EntryCount:      len(records),
		Hours:           classified.Totals.TotalHours,
		Cost:            classified.Totals.TotalCost,
		Totals:          &classified.Totals,
		Variance:        classified.EntryVariance,
		VarianceFlagged: math.Abs(classified.EntryVariance) > varianceEpsilon,
	}
	for _, record := range records {
		node.RecordIDs = append(node.RecordIDs, record.ID)
		if locked != nil && locked(record.ProjectID, record.WorkDate) {
			node.Locked = true
		}
	}
	return node
}

func groupTwoLevel(records []WorkedHourRecord, topKey, midKey keyFunc, rates map[string]float64, locked LockChecker, settings Settings) []*GroupNode {
	topOrder := []string{}
	topNames := map[string]string{}
	topRecords := map[string][]WorkedHourRecord{}

	for _, record := range records {
		id, name := topKey(record)
		if _, seen := topRecords[id]; !seen {
			topOrder = append(topOrder, id)
			topNames[id] = name
		}
		topRecords[id] = append(topRecords[id], record)
	}

	nodes := make([]*GroupNode, 0, len(topOrder))
	for _, topID := range topOrder {
		top := &GroupNode{Key: topID, Name: topNames[topID]}

		midOrder := []string{}
		midNames := map[string]string{}
		midRecords := map[string][]WorkedHourRecord{}
		for _, record := range topRecords[topID] {
			id, name := midKey(record)
			if _, seen := midRecords[id]; !seen {
				midOrder = append(midOrder, id)
				midNames[id] = name
			}
			midRecords[id] = append(midRecords[id], record)
		}

		for _, midID := range midOrder {
			mid := personNode(midID, midNames[midID], midRecords[midID], rateForRecords(rates, midRecords[midID]), locked, settings)
			mid.Children = dayNodes(midRecords[midID], rates, locked, settings)

			top.Children = append(top.Children, mid)
			top.RecordIDs = append(top.RecordIDs, mid.RecordIDs...)
			top.EntryCount += mid.EntryCount
			top.Hours += mid.Hours
			top.Cost += mid.Cost
			if mid.Locked {
				top.Locked = true
			}
		}
		nodes = append(nodes, top)
	}
	return nodes
}

// rateForRecords resolves the current rate for a mid-level group. Mid nodes
// keyed by project still hold a single person's records, so the person rate
// applies either way.
func rateForRecords(rates map[string]float64, records []WorkedHourRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	return rates[records[0].PersonID]
}

func dayNodes(records []WorkedHourRecord, rates map[string]float64, locked LockChecker, settings Settings) []*GroupNode {
	order := []string{}
	grouped := map[string][]WorkedHourRecord{}
	for _, record := range records {
		day := record.WorkDate.Format("2006-01-02")
		if _, seen := grouped[day]; !seen {
			order = append(order, day)
		}
		grouped[day] = append(grouped[day], record)
	}

	nodes := make([]*GroupNode, 0, len(order))
	for _, day := range order {
		node := &GroupNode{Key: day, Name: day}
		for _, record := range grouped[day] {
			node.RecordIDs = append(node.RecordIDs, record.ID)
			node.EntryCount++
			node.Hours += record.Hours
			node.Cost += EntryCost(record, rates[record.PersonID], settings)
			if locked != nil && locked(record.ProjectID, record.WorkDate) {
				node.Locked = true
			}
		}
		nodes = append(nodes, node)
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
	return nodes
}

func sortNodes(nodes []*GroupNode, opts ViewOptions) {
	less := func(a, b *GroupNode) bool {
		switch opts.SortBy {
		case SortByHours:
			return a.Hours < b.Hours
		case SortByCost:
			return a.Cost < b.Cost
		case SortByEntries:
			return a.EntryCount < b.EntryCount
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) < 0
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if opts.Descending {
			return less(nodes[j], nodes[i])
		}
		return less(nodes[i], nodes[j])
	})
}
