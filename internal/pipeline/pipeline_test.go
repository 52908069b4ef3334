package pipeline

import (
	"fmt"
	"math"
	"testing"
	"time"

	"crm-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func names(records []model.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i], _ = rec["name"].(string)
	}
	return out
}

func aliceAndBob() []model.Record {
	return []model.Record{
		{"name": "Alice", "status": "New", "date": "2024-01-01"},
		{"name": "Bob", "status": "Closed", "date": "2024-01-05"},
	}
}

func TestListScenarios(t *testing.T) {
	records := aliceAndBob()

	t.Run("search with status all", func(t *testing.T) {
		got := Filter(records, BuildPredicate(model.FilterCriteria{SearchTerm: "alice", StatusFilter: "all"}, testNow))
		assert.Equal(t, []string{"Alice"}, names(got))
	})

	t.Run("date descending", func(t *testing.T) {
		got := Sort(records, model.SortSpec{Key: "date", Direction: model.SortDesc})
		assert.Equal(t, []string{"Bob", "Alice"}, names(got))
	})

	t.Run("second page of one", func(t *testing.T) {
		res := Execute(records, model.FilterCriteria{}, model.SortSpec{Key: "date", Direction: model.SortDesc},
			model.PageSpec{Page: 1, PageSize: 1}, testNow)
		assert.Equal(t, []string{"Alice"}, names(res.PageItems))
		assert.Equal(t, 2, res.TotalCount)
		assert.Equal(t, 2, res.TotalPages)
	})

	t.Run("count of nothing", func(t *testing.T) {
		got := Aggregate(nil, []model.MetricSpec{{Kind: model.MetricCount}}, testNow)
		assert.Equal(t, map[string]float64{"count": 0}, got)
	})

	t.Run("csv quoting", func(t *testing.T) {
		got := ToCSV([]model.Record{{"a": "x,y"}}, []ColumnSpec{FieldColumn("A", "a")})
		assert.Equal(t, "A\n\"x,y\"", got)
	})
}

func TestFilterKeepsOrderAndInput(t *testing.T) {
	records := []model.Record{
		{"name": "Cara", "status": "New"},
		{"name": "Ann", "status": "Closed"},
		{"name": "Bea", "status": "new"},
	}
	before := fmt.Sprint(records)

	got := Filter(records, BuildPredicate(model.FilterCriteria{StatusFilter: "New"}, testNow))
	assert.Equal(t, []string{"Cara", "Bea"}, names(got))
	assert.Equal(t, before, fmt.Sprint(records))

	again := Filter(got, BuildPredicate(model.FilterCriteria{StatusFilter: "New"}, testNow))
	assert.Equal(t, names(got), names(again))
}

func TestFilterIsConjunctionOfDimensions(t *testing.T) {
	records := []model.Record{
		{"name": "Ann Smith", "category": "Auto", "status": "Open", "date": "2024-03-15"},
		{"name": "Ann Jones", "category": "Home", "status": "Open", "date": "2024-03-15"},
		{"name": "Ann Brown", "category": "Auto", "status": "Closed", "date": "2024-03-15"},
		{"name": "Ann Green", "category": "Auto", "status": "Open", "date": "2024-03-01"},
		{"name": "Bob Smith", "category": "Auto", "status": "Open", "date": "2024-03-15"},
	}
	criteria := model.FilterCriteria{
		SearchTerm:     "ann",
		Fields:         []string{"name"},
		CategoryFilter: "auto",
		StatusFilter:   "Open",
		DateFilter:     model.DateToday,
	}

	combined := Filter(records, BuildPredicate(criteria, testNow))
	assert.Equal(t, []string{"Ann Smith"}, names(combined))

	// each dimension alone admits a superset
	for _, single := range []model.FilterCriteria{
		{SearchTerm: "ann", Fields: []string{"name"}},
		{CategoryFilter: "auto"},
		{StatusFilter: "Open"},
		{DateFilter: model.DateToday},
	} {
		assert.Contains(t, names(Filter(records, BuildPredicate(single, testNow))), "Ann Smith")
	}
}

func TestSearch(t *testing.T) {
	records := []model.Record{
		{"name": "Ann", "email": "ann@acme.io", "customer": map[string]interface{}{"city": "Oslo"}},
		{"name": "Bob", "email": "bob@example.com", "premium": 1200.5},
		{"name": "Cid", "email": "cid@example.com", "tags": []interface{}{"vip", "renewal"}},
	}

	tests := []struct {
		name     string
		criteria model.FilterCriteria
		want     []string
	}{
		{"empty term matches all", model.FilterCriteria{SearchTerm: " , "}, []string{"Ann", "Bob", "Cid"}},
		{"comma terms are OR", model.FilterCriteria{SearchTerm: "ANN, cid"}, []string{"Ann", "Cid"}},
		{"configured fields only", model.FilterCriteria{SearchTerm: "example", Fields: []string{"name"}}, nil},
		{"dotted field", model.FilterCriteria{SearchTerm: "oslo", Fields: []string{"customer.city"}}, []string{"Ann"}},
		{"nested values without fields", model.FilterCriteria{SearchTerm: "oslo"}, []string{"Ann"}},
		{"numbers as text", model.FilterCriteria{SearchTerm: "1200"}, []string{"Bob"}},
		{"array elements", model.FilterCriteria{SearchTerm: "vip"}, []string{"Cid"}},
		{"missing field never matches", model.FilterCriteria{SearchTerm: "a", Fields: []string{"phone"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, BuildPredicate(tt.criteria, testNow))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestCategoryAndStatusUseConfiguredFields(t *testing.T) {
	records := []model.Record{
		{"name": "Ann", "stage": "Qualified", "source": map[string]interface{}{"channel": "Web"}},
		{"name": "Bob", "stage": "Lost"},
		{"name": "Cid"},
	}
	pred := BuildPredicate(model.FilterCriteria{
		StatusFilter:   "qualified",
		StatusField:    "stage",
		CategoryFilter: "web",
		CategoryField:  "source.channel",
	}, testNow)
	assert.Equal(t, []string{"Ann"}, names(Filter(records, pred)))

	// "all" and blank disable the dimension
	pred = BuildPredicate(model.FilterCriteria{StatusFilter: "ALL", StatusField: "stage", CategoryFilter: " "}, testNow)
	assert.Len(t, Filter(records, pred), 3)
}

func TestDateWindows(t *testing.T) {
	records := []model.Record{
		{"name": "future", "date": "2024-03-20"},
		{"name": "today-late", "date": "2024-03-15T23:30:00"},
		{"name": "today", "date": "2024-03-15"},
		{"name": "yesterday", "date": "2024-03-14"},
		{"name": "week-edge", "date": "2024-03-08"},
		{"name": "week-out", "date": "2024-03-07"},
		{"name": "month-start", "date": "2024-03-01"},
		{"name": "feb", "date": "2024-02-29"},
		{"name": "month-edge", "date": "2024-02-14"},
		{"name": "month-out", "date": "2024-02-13"},
		{"name": "garbage", "date": "not a date"},
		{"name": "missing"},
	}

	tests := []struct {
		filter model.DateFilter
		want   []string
	}{
		{model.DateAll, names(records)},
		{"", names(records)},
		{model.DateToday, []string{"today-late", "today"}},
		{model.DateYesterday, []string{"yesterday"}},
		{model.DateLastWeek, []string{"future", "today-late", "today", "yesterday", "week-edge"}},
		{model.DateLastMonth, []string{"future", "today-late", "today", "yesterday", "week-edge", "week-out", "month-start", "feb", "month-edge"}},
		{model.DateThisMonth, []string{"future", "today-late", "today", "yesterday", "week-edge", "week-out", "month-start"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := Filter(records, BuildPredicate(model.FilterCriteria{DateFilter: tt.filter}, testNow))
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestDateWindowUsesNowLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, est)
	records := []model.Record{
		{"name": "late-utc", "date": "2024-03-15T03:00:00Z"}, // 22:00 on the 14th in EST
		{"name": "noon-utc", "date": "2024-03-15T17:00:00Z"},
	}

	today := Filter(records, BuildPredicate(model.FilterCriteria{DateFilter: model.DateToday}, now))
	assert.Equal(t, []string{"noon-utc"}, names(today))

	yesterday := Filter(records, BuildPredicate(model.FilterCriteria{DateFilter: model.DateYesterday}, now))
	assert.Equal(t, []string{"late-utc"}, names(yesterday))
}

func TestCustomRange(t *testing.T) {
	records := []model.Record{
		{"name": "before", "createdAt": "2024-02-29"},
		{"name": "start", "createdAt": "2024-03-01T00:00:00"},
		{"name": "end", "createdAt": "2024-03-10T18:00:00"},
		{"name": "after", "createdAt": "2024-03-11"},
	}
	run := func(r *model.DateRange) []string {
		return names(Filter(records, BuildPredicate(model.FilterCriteria{
			DateFilter:  model.DateCustom,
			DateField:   "createdAt",
			CustomRange: r,
		}, testNow)))
	}

	assert.Equal(t, []string{"start", "end"}, run(&model.DateRange{Start: "2024-03-01", End: "2024-03-10"}))
	assert.Equal(t, []string{"end", "after"}, run(&model.DateRange{Start: "2024-03-02"}))
	assert.Equal(t, []string{"before", "start"}, run(&model.DateRange{End: "2024-03-01"}))
	assert.Equal(t, names(records), run(nil))
	assert.Equal(t, names(records), run(&model.DateRange{}))
}

func TestComparator(t *testing.T) {
	tests := []struct {
		name string
		spec model.SortSpec
		in   []model.Record
		want []string
	}{
		{
			name: "numbers not lexicographic",
			spec: model.SortSpec{Key: "premium"},
			in:   []model.Record{{"name": "a", "premium": 100}, {"name": "b", "premium": 9.5}, {"name": "c", "premium": 20}},
			want: []string{"b", "c", "a"},
		},
		{
			name: "strings ignore case",
			spec: model.SortSpec{Key: "name", Direction: model.SortAsc},
			in:   []model.Record{{"name": "bob"}, {"name": "Alice"}, {"name": "carl"}},
			want: []string{"Alice", "bob", "carl"},
		},
		{
			name: "date suffix compares instants",
			spec: model.SortSpec{Key: "updatedAt"},
			in: []model.Record{
				{"name": "x", "updatedAt": "2024-03-01T10:00:00Z"},
				{"name": "y", "updatedAt": "2024-03-01T09:00:00-02:00"},
				{"name": "z", "updatedAt": "2024-02-28"},
			},
			want: []string{"z", "x", "y"},
		},
		{
			name: "missing first ascending",
			spec: model.SortSpec{Key: "score", Type: "number"},
			in:   []model.Record{{"name": "a", "score": 3}, {"name": "b"}, {"name": "c", "score": "n/a"}, {"name": "d", "score": 1}},
			want: []string{"b", "c", "d", "a"},
		},
		{
			name: "missing last descending",
			spec: model.SortSpec{Key: "score", Direction: model.SortDesc},
			in:   []model.Record{{"name": "a", "score": 3}, {"name": "b"}, {"name": "d", "score": 1}},
			want: []string{"a", "d", "b"},
		},
		{
			name: "dotted key",
			spec: model.SortSpec{Key: "customer.name"},
			in: []model.Record{
				{"name": "1", "customer": map[string]interface{}{"name": "Zed"}},
				{"name": "2", "customer": map[string]interface{}{"name": "amy"}},
			},
			want: []string{"2", "1"},
		},
		{
			name: "numbers before text in mixed column",
			spec: model.SortSpec{Key: "premium"},
			in:   []model.Record{{"name": "a", "premium": "N/A"}, {"name": "b", "premium": 1200}, {"name": "c", "premium": "1x"}, {"name": "d", "premium": 2}},
			want: []string{"d", "b", "c", "a"},
		},
		{
			name: "mixed column descending",
			spec: model.SortSpec{Key: "premium", Direction: model.SortDesc},
			in:   []model.Record{{"name": "a", "premium": "N/A"}, {"name": "b", "premium": 1200}, {"name": "c", "premium": "1x"}, {"name": "d", "premium": 2}},
			want: []string{"a", "c", "b", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Sort(tt.in, tt.spec)))
		})
	}
}

func TestComparatorMixedValuesAreTransitive(t *testing.T) {
	cmp := BuildComparator(model.SortSpec{Key: "v"})
	values := []interface{}{2, 10, "1x", "N/A", 3.5, "abc", nil}

	for _, a := range values {
		for _, b := range values {
			ra, rb := model.Record{"v": a}, model.Record{"v": b}
			assert.Equal(t, -cmp(ra, rb), cmp(rb, ra), "antisymmetry %v %v", a, b)
			for _, c := range values {
				rc := model.Record{"v": c}
				if cmp(ra, rb) < 0 && cmp(rb, rc) < 0 {
					assert.Negative(t, cmp(ra, rc), "%v < %v < %v", a, b, c)
				}
			}
		}
	}
}

func TestExecuteIsIdempotent(t *testing.T) {
	records := []model.Record{
		{"name": "Carl", "status": "New", "date": "2024-03-14", "premium": 300},
		{"name": "Alice", "status": "New", "date": "2024-03-10", "premium": "N/A"},
		{"name": "Bob", "status": "Closed", "date": "2024-03-12", "premium": 150},
		{"name": "Dana", "status": "New", "date": "2024-01-01", "premium": 150},
	}
	before := make([]model.Record, len(records))
	for i, rec := range records {
		before[i] = rec.Clone()
	}
	criteria := model.FilterCriteria{StatusFilter: "new", DateFilter: model.DateLastWeek}
	spec := model.SortSpec{Key: "premium", Direction: model.SortDesc}
	page := model.PageSpec{Page: 0, PageSize: 1}

	first := Execute(records, criteria, spec, page, testNow)
	second := Execute(records, criteria, spec, page, testNow)

	assert.Equal(t, first, second)
	assert.Equal(t, before, records)
	assert.Equal(t, []string{"Alice"}, names(first.PageItems))
	assert.Equal(t, 2, first.TotalCount)
}

func TestSortIsStableBothDirections(t *testing.T) {
	records := []model.Record{
		{"name": "a", "status": "Open"},
		{"name": "b", "status": "Closed"},
		{"name": "c", "status": "open"},
		{"name": "d", "status": "Closed"},
	}
	asc := Sort(records, model.SortSpec{Key: "status"})
	assert.Equal(t, []string{"b", "d", "a", "c"}, names(asc))

	desc := Sort(records, model.SortSpec{Key: "status", Direction: model.SortDesc})
	assert.Equal(t, []string{"a", "c", "b", "d"}, names(desc))

	// no key keeps input order and returns a copy
	same := Sort(records, model.SortSpec{})
	assert.Equal(t, names(records), names(same))
	same[0] = model.Record{"name": "changed"}
	assert.Equal(t, "a", records[0]["name"])
}

func TestPaginationCoversSortedSet(t *testing.T) {
	var records []model.Record
	for i := 0; i < 23; i++ {
		records = append(records, model.Record{"name": fmt.Sprintf("r%02d", i)})
	}

	for _, size := range []int{1, 5, 10, 23, 50} {
		res := PageOf(records, model.PageSpec{PageSize: size})
		var seen []string
		for p := 0; p < res.TotalPages; p++ {
			page := Paginate(records, model.PageSpec{Page: p, PageSize: size})
			assert.LessOrEqual(t, len(page), size)
			seen = append(seen, names(page)...)
		}
		assert.Equal(t, names(records), seen, "page size %d", size)
		assert.Empty(t, Paginate(records, model.PageSpec{Page: res.TotalPages, PageSize: size}))
	}
}

func TestPaginateEdges(t *testing.T) {
	records := aliceAndBob()

	assert.Empty(t, Paginate(records, model.PageSpec{Page: -1, PageSize: 1}))
	assert.Empty(t, Paginate(records, model.PageSpec{Page: 5, PageSize: 1}))
	assert.Equal(t, []string{"Alice", "Bob"}, names(Paginate(records, model.PageSpec{PageSize: 0})))
	assert.Empty(t, Paginate(records, model.PageSpec{Page: 1, PageSize: 0}))

	huge := Execute(records, model.FilterCriteria{}, model.SortSpec{}, model.PageSpec{PageSize: math.MaxInt}, testNow)
	assert.Equal(t, []string{"Alice", "Bob"}, names(huge.PageItems))
	assert.Equal(t, 1, huge.TotalPages)
	assert.Empty(t, Paginate(records, model.PageSpec{Page: 1, PageSize: math.MaxInt}))

	empty := Execute(nil, model.FilterCriteria{}, model.SortSpec{Key: "name"}, model.PageSpec{PageSize: 10}, testNow)
	require.NotNil(t, empty.PageItems)
	assert.Equal(t, 0, empty.TotalCount)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestSortsOnlyVisibleSet(t *testing.T) {
	records := []model.Record{
		{"name": "z-open", "status": "Open"},
		{"name": "a-closed", "status": "Closed"},
		{"name": "m-open", "status": "Open"},
	}
	res := Execute(records, model.FilterCriteria{StatusFilter: "Open"}, model.SortSpec{Key: "name"},
		model.PageSpec{Page: 0, PageSize: 1}, testNow)
	assert.Equal(t, []string{"m-open"}, names(res.PageItems))
	assert.Equal(t, 2, res.TotalCount)
}
