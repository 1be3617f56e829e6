package engine

import (
	"slices"
	"sort"
	"strings"
	"time"

	"taskdock/internal/domain"
)

const (
	SortByCreatedAt = "created_at"
	SortByDueDate   = "due_date"
	SortByPriority  = "priority"
	SortByTitle     = "title"
	SortByCategory  = "category"
)

var sortKeys = []string{SortByCreatedAt, SortByDueDate, SortByPriority, SortByTitle, SortByCategory}

func ValidSortKey(k string) bool { return slices.Contains(sortKeys, k) }

// TaskFilters holds optional criteria; zero values mean no constraint.
// Callers validate enum members before filtering.
type TaskFilters struct {
	Status      string
	Category    string
	Priority    int
	Search      string
	OverdueOnly bool
}

// FilterTasks applies every provided criterion conjunctively and preserves the
// input order. Search matches case-insensitively against title or description.
// Overdue is evaluated against now, never against a stored flag.
func FilterTasks(tasks []domain.Task, f TaskFilters, now time.Time) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	query := strings.ToLower(f.Search)
	for _, t := range tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Priority != 0 && t.Priority != f.Priority {
			continue
		}
		if query != "" && !matchesSearch(t, query) {
			continue
		}
		if f.OverdueOnly && !t.IsOverdue(now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesSearch(t domain.Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), query)
}

// SortTasks returns a stably sorted copy. Tasks without a due date sort after
// every task that has one, in both directions.
func SortTasks(tasks []domain.Task, key string, descending bool) []domain.Task {
	sorted := make([]domain.Task, len(tasks))
	copy(sorted, tasks)
	if key == "" {
		key = SortByCreatedAt
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if key == SortByDueDate {
			ad, aok := a.DueTime()
			bd, bok := b.DueTime()
			if aok != bok {
				return aok
			}
			if !aok {
				return false
			}
			if descending {
				return ad.After(bd)
			}
			return ad.Before(bd)
		}
		var cmp int
		switch key {
		case SortByPriority:
			cmp = a.Priority - b.Priority
		case SortByTitle:
			cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case SortByCategory:
			cmp = strings.Compare(a.Category, b.Category)
		default:
			cmp = compareTimestamps(a.CreatedAt, b.CreatedAt)
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return sorted
}

func compareTimestamps(a, b string) int {
	at, aerr := time.Parse(time.RFC3339, a)
	bt, berr := time.Parse(time.RFC3339, b)
	if aerr == nil && berr == nil {
		return at.Compare(bt)
	}
	return strings.Compare(a, b)
}

type TaskStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	Overdue        int            `json:"overdue"`
	HighPriority   int            `json:"high_priority"`
	CompletionRate float64        `json:"completion_rate"`
	ByCategory     map[string]int `json:"by_category"`
}

// ComputeTaskStats aggregates the collection. The maps are zero-filled across
// the full enumerated sets, and the rate is 0 for an empty collection.
func ComputeTaskStats(tasks []domain.Task, now time.Time) TaskStats {
	stats := TaskStats{
		Total:      len(tasks),
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
	}
	for _, s := range domain.TaskStatuses {
		stats.ByStatus[s] = 0
	}
	for _, c := range domain.TaskCategories {
		stats.ByCategory[c] = 0
	}
	for _, t := range tasks {
		stats.ByStatus[t.Status]++
		stats.ByCategory[t.Category]++
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		if t.IsHighPriority() {
			stats.HighPriority++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.ByStatus[domain.StatusCompleted]) / float64(stats.Total) * 100
	}
	return stats
}
