package payroll

import (
	"testing"
	"time"
)

func namedRecord(id, personID, personName, projectID, projectName string, d int, hours float64) WorkedHourRecord {
	return WorkedHourRecord{
		ID:          id,
		PersonID:    personID,
		PersonName:  personName,
		ProjectID:   projectID,
		ProjectName: projectName,
		WorkDate:    day(d),
		Hours:       hours,
	}
}

func sampleRecords() []WorkedHourRecord {
	return []WorkedHourRecord{
		namedRecord("r1", "p1", "Avery", "job1", "Bridge", 2, 8),
		namedRecord("r2", "p2", "Blake", "job1", "Bridge", 2, 6),
		namedRecord("r3", "p1", "Avery", "job2", "Depot", 3, 4),
		namedRecord("r4", "p2", "Blake", "job1", "Bridge", 3, 10),
	}
}

func TestBuildViewByPerson(t *testing.T) {
	rates := map[string]float64{"p1": 20, "p2": 30}

	nodes, err := BuildView(sampleRecords(), ViewOptions{View: ViewByPerson, SortBy: SortByName}, rates, nil, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 person groups, got %d", len(nodes))
	}
	if nodes[0].Name != "Avery" || nodes[1].Name != "Blake" {
		t.Fatalf("expected name-sorted groups, got %s, %s", nodes[0].Name, nodes[1].Name)
	}
	if nodes[0].Hours != 12 {
		t.Fatalf("expected 12 hours for Avery, got %v", nodes[0].Hours)
	}
	if len(nodes[0].RecordIDs) != 2 {
		t.Fatalf("expected 2 member records, got %v", nodes[0].RecordIDs)
	}
	if nodes[0].Totals == nil || nodes[0].Totals.TotalCost != 240 {
		t.Fatal("expected classifier totals on person node")
	}
}

func TestBuildViewSortDescendingByHours(t *testing.T) {
	rates := map[string]float64{"p1": 20, "p2": 30}

	nodes, err := BuildView(sampleRecords(), ViewOptions{View: ViewByPerson, SortBy: SortByHours, Descending: true}, rates, nil, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodes[0].Name != "Blake" {
		t.Fatalf("expected Blake first with 16 hours, got %s", nodes[0].Name)
	}
}

func TestBuildViewProjectPersonDay(t *testing.T) {
	rates := map[string]float64{"p1": 20, "p2": 30}

	nodes, err := BuildView(sampleRecords(), ViewOptions{View: ViewProjectPersonDay, SortBy: SortByName}, rates, nil, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 project groups, got %d", len(nodes))
	}

	bridge := nodes[0]
	if bridge.Name != "Bridge" {
		t.Fatalf("expected Bridge first, got %s", bridge.Name)
	}
	if len(bridge.Children) != 2 {
		t.Fatalf("expected 2 person children, got %d", len(bridge.Children))
	}
	if bridge.EntryCount != 3 {
		t.Fatalf("expected 3 entries under Bridge, got %d", bridge.EntryCount)
	}

	blake := bridge.Children[1]
	if blake.Name != "Blake" {
		t.Fatalf("expected Blake child, got %s", blake.Name)
	}
	if len(blake.Children) != 2 {
		t.Fatalf("expected 2 day nodes, got %d", len(blake.Children))
	}
	if blake.Children[0].Key != "2025-06-02" {
		t.Fatalf("expected days ascending, got %s", blake.Children[0].Key)
	}
}

func TestBuildViewPersonProjectDay(t *testing.T) {
	rates := map[string]float64{"p1": 20, "p2": 30}

	nodes, err := BuildView(sampleRecords(), ViewOptions{View: ViewPersonProjectDay, SortBy: SortByName}, rates, nil, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	avery := nodes[0]
	if avery.Name != "Avery" {
		t.Fatalf("expected Avery first, got %s", avery.Name)
	}
	if len(avery.Children) != 2 {
		t.Fatalf("expected 2 project children, got %d", len(avery.Children))
	}
}

func TestBuildViewLockedFlag(t *testing.T) {
	rates := map[string]float64{"p1": 20, "p2": 30}
	lockedWeek := func(projectID string, workDate time.Time) bool {
		return projectID == "job1"
	}

	nodes, err := BuildView(sampleRecords(), ViewOptions{View: ViewProjectPersonDay, SortBy: SortByName}, rates, lockedWeek, DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nodes[0].Locked {
		t.Fatal("expected Bridge group to surface the locked flag")
	}
	if nodes[1].Locked {
		t.Fatal("expected Depot group unlocked")
	}
}

func TestBuildViewUnknownView(t *testing.T) {
	if _, err := BuildView(nil, ViewOptions{View: "bogus"}, nil, nil, DefaultSettings()); err != ErrUnknownView {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}
