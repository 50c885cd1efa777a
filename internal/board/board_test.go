package board

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/model"
)

var now = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

func due(offset int) model.Date {
	return model.DateOf(now.AddDate(0, 0, offset))
}

func created(offset int) model.Timestamp {
	return model.Timestamp{Time: now.Add(time.Duration(offset) * time.Hour)}
}

func ids(tasks []model.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sample() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Pay rent", Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: due(-2), CreatedAt: created(-5)},
		{ID: 2, Title: "Read book", Status: model.StatusInProgress, Priority: model.PriorityLow, Tags: "leisure", CreatedAt: created(-1)},
		{ID: 3, Title: "Ship release", Description: "Tag v2 and publish NOTES", Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: due(1), CreatedAt: created(-3)},
		{ID: 4, Title: "File taxes", Status: model.StatusDone, Priority: model.PriorityMedium, DueDate: due(-10), CreatedAt: created(-8)},
		{ID: 5, Title: "Call plumber", Status: model.StatusTodo, Priority: model.PriorityMedium, DueDate: due(0), Tags: "home", CreatedAt: created(-2)},
		{ID: 6, Title: "Buy milk", Status: model.StatusInProgress, Priority: model.PriorityMedium, DueDate: due(-1), Tags: "home,errand", CreatedAt: created(-4)},
	}
}

func query(f Filter, s Sort) Query {
	return Query{Filter: f, Sort: s, Width: 200, Breakpoint: 100}
}

func TestApply_OverdueScenario(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Status: model.StatusTodo, DueDate: due(-1)},
		{ID: 2, Status: model.StatusDone, DueDate: due(-1)},
	}
	got := Apply(tasks, query(FilterOverdue, SortDueDate), now)
	assert.Equal(t, []int{1}, ids(got))
}

func TestApply_OverdueNeverIncludesDone(t *testing.T) {
	for _, task := range Apply(sample(), query(FilterOverdue, SortPriority), now) {
		assert.NotEqual(t, model.StatusDone, task.Status, "task %d", task.ID)
	}
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"all keeps everything", FilterAll, []int{1, 2, 3, 4, 5, 6}},
		{"high priority", FilterHighPriority, []int{1, 3}},
		{"overdue skips done", FilterOverdue, []int{1, 6}},
		{"due today", FilterDueToday, []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sample(), query(tt.filter, ""), now)
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func TestApply_SortByDueDatePutsUndatedLast(t *testing.T) {
	got := Apply(sample(), query(FilterAll, SortDueDate), now)
	assert.Equal(t, []int{4, 1, 6, 5, 3, 2}, ids(got))
}

func TestApply_SortByCreatedAtNewestFirst(t *testing.T) {
	got := Apply(sample(), query(FilterAll, SortCreatedAt), now)
	assert.Equal(t, []int{2, 5, 3, 6, 1, 4}, ids(got))
}

func TestApply_SortByPriorityRanksThenOverdueFirst(t *testing.T) {
	got := Apply(sample(), query(FilterAll, SortPriority), now)

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		rp, rc := model.PriorityRank(prev.Priority), model.PriorityRank(cur.Priority)
		require.LessOrEqual(t, rp, rc, "rank sequence must be non-decreasing")
		if rp == rc && model.IsOverdue(cur, now) {
			assert.True(t, model.IsOverdue(prev, now), "overdue task %d follows non-overdue %d", cur.ID, prev.ID)
		}
	}
	// Medium bucket: 6 is overdue, 4 is done (never overdue), 5 is due today.
	assert.Equal(t, []int{1, 3, 6, 4, 5, 2}, ids(got))
}

func TestApply_UnknownSortKeepsSourceOrder(t *testing.T) {
	got := Apply(sample(), query(FilterAll, "title"), now)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(got))
}

func TestApply_SearchMatchesTitleDescriptionAndTags(t *testing.T) {
	tests := []struct {
		search string
		want   []int
	}{
		{"RENT", []int{1}},
		{"notes", []int{3}},
		{"home", []int{6, 5}},
		{"  ", []int{4, 1, 6, 5, 3, 2}},
		{"nothing matches", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			q := query(FilterAll, SortDueDate)
			q.Search = tt.search
			assert.Equal(t, tt.want, ids(Apply(sample(), q, now)))
		})
	}
}

func TestApply_StatusTabOnlyWhenNarrow(t *testing.T) {
	q := query(FilterAll, SortDueDate)
	q.Tab = model.StatusInProgress

	wide := Apply(sample(), q, now)
	assert.Len(t, wide, 6)

	q.Width = 80
	narrow := Apply(sample(), q, now)
	assert.ElementsMatch(t, []int{2, 6}, ids(narrow))

	// The tab narrows before the filter runs.
	q.Filter = FilterOverdue
	assert.Equal(t, []int{6}, ids(Apply(sample(), q, now)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tasks := sample()
	before := slices.Clone(tasks)

	q := query(FilterAll, SortCreatedAt)
	q.Search = "a"
	_ = Apply(tasks, q, now)

	assert.Equal(t, before, tasks)
}

func TestBucketAndCounts(t *testing.T) {
	all := sample()
	filtered := Apply(all, query(FilterHighPriority, SortDueDate), now)

	buckets := Bucket(filtered)
	assert.Equal(t, []int{1, 3}, ids(buckets[model.StatusTodo]))
	assert.Empty(t, buckets[model.StatusInProgress])
	assert.Empty(t, buckets[model.StatusDone])

	counts := Counts(all)
	assert.Equal(t, 3, counts[model.StatusTodo])
	assert.Equal(t, 2, counts[model.StatusInProgress])
	assert.Equal(t, 1, counts[model.StatusDone])
	assert.Equal(t, 0, Counts(nil)[model.StatusDone])
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(nil))
	assert.Equal(t, 100, Progress([]model.Task{{Status: model.StatusDone}, {Status: model.StatusDone}}))
	assert.Equal(t, 17, Progress(sample()))

	third := []model.Task{{Status: model.StatusDone}, {Status: model.StatusTodo}, {Status: model.StatusTodo}}
	assert.Equal(t, 33, Progress(third))
	third[1].Status = model.StatusDone
	assert.Equal(t, 67, Progress(third))
}

func TestParseFilterAndSort(t *testing.T) {
	f, err := ParseFilter("Overdue")
	require.NoError(t, err)
	assert.Equal(t, FilterOverdue, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("someday")
	assert.ErrorContains(t, err, "high_priority")

	s, err := ParseSort("created_at")
	require.NoError(t, err)
	assert.Equal(t, SortCreatedAt, s)

	_, err = ParseSort("alpha")
	assert.Error(t, err)
}
