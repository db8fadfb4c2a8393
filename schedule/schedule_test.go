package schedule_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func day(s string) calendar.Date {
	return calendar.MustParseDate(s)
}

func newSession(quantities ...int) *schedule.Session {
	items := make([]schedule.LineItem, len(quantities))
	for i, q := range quantities {
		items[i] = schedule.LineItem{ServiceName: fmt.Sprintf("service-%d", i), Quantity: q}
	}
	return schedule.NewSession("sess-1", schedule.Target{
		PackageID: "pkg-1",
		ClientID:  "client-1",
		TaskType:  "Graphics Designing",
		LineItems: items,
	}, nil)
}

func rangeConfig(index int, start, end string, holidays ...string) schedule.LineItemConfig {
	cfg := schedule.LineItemConfig{
		LineItemIndex: index,
		Method:        schedule.MethodDateRange,
		AssigneeID:    "emp-7",
		Priority:      schedule.PriorityHigh,
		Description:   "Poster",
		StartDate:     day(start),
		EndDate:       day(end),
	}
	for _, h := range holidays {
		cfg.Holidays = append(cfg.Holidays, day(h))
	}
	return cfg
}

// recorder is an in-memory TaskCreator.
type recorder struct {
	tasks []schedule.Task
}

func (r *recorder) CreateTask(_ context.Context, task schedule.Task) (string, error) {
	r.tasks = append(r.tasks, task)
	return fmt.Sprintf("task-%d", len(r.tasks)), nil
}

// =============================================================================
// STATUS & PRIORITY
// =============================================================================

func TestParseTaskStatus_ClosedSet(t *testing.T) {
	assert.Equal(t, schedule.StatusFinished, schedule.ParseTaskStatus("finished"))
	assert.Equal(t, schedule.StatusInProgress, schedule.ParseTaskStatus("  In   progress "))
	assert.Equal(t, schedule.StatusUnknown, schedule.ParseTaskStatus("Finsihed"))

	assert.True(t, schedule.StatusCompleted.IsTerminal())
	assert.True(t, schedule.StatusClosed.IsTerminal())
	assert.False(t, schedule.StatusUnknown.IsTerminal())
	assert.False(t, schedule.StatusOnHold.IsTerminal())
}

func TestParsePriority(t *testing.T) {
	p, err := schedule.ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, schedule.PriorityMedium, p)

	p, err = schedule.ParsePriority("URGENT")
	require.NoError(t, err)
	assert.Equal(t, schedule.PriorityUrgent, p)

	_, err = schedule.ParsePriority("asap")
	assert.Error(t, err)
}

// =============================================================================
// BULK ENTRY BUILDER
// =============================================================================

func TestBuild_SequentialNumberingAcrossDays(t *testing.T) {
	// GIVEN: 3 days with 2 units each, plus 1 extra on the middle day
	// WHEN: Building with text "Poster"
	// THEN: Descriptions run "Poster 1/7" .. "Poster 7/7" in date order

	dates := []calendar.Date{day("2025-03-10"), day("2025-03-11"), day("2025-03-12")}
	extras := calendar.Extras{"2025-03-11": 1}
	tpl := schedule.Template{ClientID: "c1", ServiceID: "Poster Design", Priority: schedule.PriorityLow, AssigneeID: "emp-1"}

	tasks := schedule.Build(dates, 2, extras, tpl, 7, "Poster")

	require.Len(t, tasks, 7)
	for k, task := range tasks {
		assert.Equal(t, fmt.Sprintf("Poster %d/7", k+1), task.Description)
		assert.True(t, task.StartDate.Equal(task.Deadline))
		assert.Zero(t, task.Amount)
		assert.Equal(t, "c1", task.ClientID)
		assert.Equal(t, "emp-1", task.AssignedEmployeeID)
		assert.Equal(t, schedule.StatusNotStarted, task.Status)
	}
	assert.Equal(t, "2025-03-10", tasks[1].StartDate.String())
	assert.Equal(t, "2025-03-11", tasks[2].StartDate.String())
	assert.Equal(t, "2025-03-11", tasks[4].StartDate.String())
	assert.Equal(t, "2025-03-12", tasks[5].StartDate.String())
}

func TestBuild_DefaultText(t *testing.T) {
	tasks := schedule.Build([]calendar.Date{day("2025-03-10")}, 2, nil, schedule.Template{}, 2, "   ")
	require.Len(t, tasks, 2)
	assert.Equal(t, "Entry 1/2", tasks[0].Description)
	assert.Equal(t, "Entry 2/2", tasks[1].Description)
}

func TestBuild_LineItemIndexNotShared(t *testing.T) {
	tpl := schedule.Template{LineItemIndex: schedule.IndexRef(3)}
	tasks := schedule.Build([]calendar.Date{day("2025-03-10")}, 2, nil, tpl, 2, "")

	*tasks[0].PackageLineItemIndex = 9
	assert.Equal(t, 3, tasks[1].LineItemIndex())
}

// =============================================================================
// PLANNING & VALIDATION
// =============================================================================

func TestPlanLineItem_ExactDivisionAccepted(t *testing.T) {
	// GIVEN: Mar 3 - Apr 6 2025 has 30 non-Sunday days
	// WHEN: Scheduling 30 units
	// THEN: 1 unit per day

	plan, err := schedule.PlanLineItem(rangeConfig(0, "2025-03-03", "2025-04-06"), 30)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.PerDay)
	assert.Len(t, plan.Days, 30)
	assert.Equal(t, 30, plan.Units())
}

func TestPlanLineItem_InexactDivisionRejected(t *testing.T) {
	_, err := schedule.PlanLineItem(rangeConfig(0, "2025-03-03", "2025-04-06"), 31)

	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrInexactDivision)
	var divErr *schedule.DivisionError
	require.ErrorAs(t, err, &divErr)
	assert.Equal(t, 30, divErr.ProductionDays)
	assert.Equal(t, "1.0333", divErr.PerDay.String())
	assert.True(t, schedule.IsClientError(err))
}

func TestPlanLineItem_FewerUnitsThanDaysRejected(t *testing.T) {
	_, err := schedule.PlanLineItem(rangeConfig(0, "2025-03-10", "2025-03-14"), 3)
	assert.ErrorIs(t, err, schedule.ErrInexactDivision)
}

func TestPlanLineItem_HolidayRedistributed(t *testing.T) {
	// GIVEN: Mon-Fri, 10 units, Wednesday is a holiday
	// THEN: Mon=2, Tue=4, Thu=2, Fri=2

	plan, err := schedule.PlanLineItem(rangeConfig(0, "2025-03-10", "2025-03-14", "2025-03-12"), 10)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, row := range plan.Counts() {
		counts[row.Date.String()] = row.Units
	}
	assert.Equal(t, map[string]int{
		"2025-03-10": 2,
		"2025-03-11": 4,
		"2025-03-13": 2,
		"2025-03-14": 2,
	}, counts)
	assert.Equal(t, 10, plan.Units())
	assert.Len(t, plan.Holidays, 1)
}

func TestPlanLineItem_RequiredFields(t *testing.T) {
	noAssignee := rangeConfig(0, "2025-03-10", "2025-03-14")
	noAssignee.AssigneeID = ""

	noStart := rangeConfig(0, "2025-03-10", "2025-03-14")
	noStart.StartDate = calendar.Date{}

	noEnd := rangeConfig(0, "2025-03-10", "2025-03-14")
	noEnd.EndDate = calendar.Date{}

	allHolidays := rangeConfig(0, "2025-03-10", "2025-03-11", "2025-03-10", "2025-03-11")

	inverted := rangeConfig(0, "2025-03-14", "2025-03-10")

	noDates := schedule.LineItemConfig{Method: schedule.MethodSpecificDays, AssigneeID: "emp-1"}

	badMethod := schedule.LineItemConfig{Method: "weekly", AssigneeID: "emp-1"}

	cases := map[string]schedule.LineItemConfig{
		"missing assignee": noAssignee,
		"missing start":    noStart,
		"missing end":      noEnd,
		"only holidays":    allHolidays,
		"inverted range":   inverted,
		"no dates":         noDates,
		"unknown method":   badMethod,
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schedule.PlanLineItem(cfg, 10)
			assert.ErrorIs(t, err, schedule.ErrValidation)
		})
	}
}

func TestPlanLineItem_SpecificDaysSpreadsRemainder(t *testing.T) {
	cfg := schedule.LineItemConfig{
		Method:     schedule.MethodSpecificDays,
		AssigneeID: "emp-1",
		Dates:      []calendar.Date{day("2025-03-14"), day("2025-03-10"), day("2025-03-12")},
	}

	plan, err := schedule.PlanLineItem(cfg, 8)
	require.NoError(t, err)

	assert.Equal(t, []schedule.DayCount{
		{Date: day("2025-03-10"), Units: 3},
		{Date: day("2025-03-12"), Units: 3},
		{Date: day("2025-03-14"), Units: 2},
	}, plan.Counts())
}

func TestToggleDate_SundayIsNoOp(t *testing.T) {
	var cfg schedule.LineItemConfig

	cfg.ToggleDate(day("2025-03-16")) // Sunday
	assert.Empty(t, cfg.Dates)

	cfg.ToggleDate(day("2025-03-12"))
	cfg.ToggleDate(day("2025-03-10"))
	assert.Equal(t, []calendar.Date{day("2025-03-10"), day("2025-03-12")}, cfg.Dates)

	cfg.ToggleDate(day("2025-03-12"))
	assert.Equal(t, []calendar.Date{day("2025-03-10")}, cfg.Dates)
}

func TestToggleDate_LeavesEarlierCopiesAlone(t *testing.T) {
	// GIVEN: A config and a copy taken before toggling
	cfg := schedule.LineItemConfig{Dates: []calendar.Date{day("2025-03-10"), day("2025-03-11"), day("2025-03-12")}}
	snapshot := cfg

	// WHEN: Removing the middle date and adding another
	cfg.ToggleDate(day("2025-03-11"))
	cfg.ToggleDate(day("2025-03-13"))

	// THEN: Only cfg changed
	assert.Equal(t, []calendar.Date{day("2025-03-10"), day("2025-03-12"), day("2025-03-13")}, cfg.Dates)
	assert.Equal(t, []calendar.Date{day("2025-03-10"), day("2025-03-11"), day("2025-03-12")}, snapshot.Dates)
}

func TestPlanLineItem_HolidayCountsTowardDivisor(t *testing.T) {
	// Mon 2025-03-03 .. Sat 2025-03-08 has 6 production days; Wednesday is
	// off, leaving 5 working days. The quantity must divide by 6.
	cfg := rangeConfig(0, "2025-03-03", "2025-03-08", "2025-03-05")

	_, err := schedule.PlanLineItem(cfg, 5)
	var divErr *schedule.DivisionError
	require.ErrorAs(t, err, &divErr)
	assert.Equal(t, 6, divErr.ProductionDays)
	assert.Equal(t, 1, divErr.Holidays)
	assert.Equal(t, "0.8333", divErr.PerDay.String())

	plan, err := schedule.PlanLineItem(cfg, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, plan.Units())
	assert.Len(t, plan.Days, 5)
	assert.Equal(t, 2, plan.CountOn(day("2025-03-04")))
}

// fakeCalendar serves a mutable list of stored holidays.
type fakeCalendar struct {
	mu       sync.Mutex
	holidays []calendar.Holiday
	err      error
}

func (f *fakeCalendar) add(h calendar.Holiday) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holidays = append(f.holidays, h)
}

func (f *fakeCalendar) HolidaysBetween(_ context.Context, _, _ calendar.Date) ([]calendar.Holiday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]calendar.Holiday(nil), f.holidays...), f.err
}

func TestResolveHolidays(t *testing.T) {
	cal := &fakeCalendar{holidays: []calendar.Holiday{
		{Date: day("2020-03-05"), Name: "Founders Day", Recurring: true},
		{Date: day("2025-03-07"), Name: "Offsite"},
	}}
	cfg := rangeConfig(0, "2025-03-03", "2025-03-08", "2025-03-07")

	// Flag off: stored holidays are ignored.
	got, err := schedule.ResolveHolidays(context.Background(), cal, cfg)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{day("2025-03-07")}, got.Holidays)

	// Flag on: recurring holidays expand and duplicates collapse.
	cfg.UseCompanyHolidays = true
	got, err = schedule.ResolveHolidays(context.Background(), cal, cfg)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{day("2025-03-05"), day("2025-03-07")}, got.Holidays)
	assert.Equal(t, []calendar.Date{day("2025-03-07")}, cfg.Holidays)

	cal.err = errors.New("holiday table locked")
	_, err = schedule.ResolveHolidays(context.Background(), cal, cfg)
	assert.ErrorIs(t, err, cal.err)
}

// =============================================================================
// LINE-ITEM QUEUE
// =============================================================================

func TestSession_QueuedEntryUnaffectedByCallerToggles(t *testing.T) {
	// GIVEN: A specific-days entry queued from a caller-owned config
	s := newSession(3)
	cfg := schedule.LineItemConfig{
		LineItemIndex: 0,
		Method:        schedule.MethodSpecificDays,
		AssigneeID:    "emp-7",
		Dates:         []calendar.Date{day("2025-03-10"), day("2025-03-11"), day("2025-03-12")},
	}
	_, err := s.AddOrReplace(context.Background(), cfg)
	require.NoError(t, err)

	// WHEN: The caller keeps editing its config
	cfg.ToggleDate(day("2025-03-11"))
	cfg.Dates[0] = day("2025-03-14")

	// THEN: The queue still holds what was added
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []calendar.Date{day("2025-03-10"), day("2025-03-11"), day("2025-03-12")}, entries[0].Dates)
}

func TestSession_CompanyHolidaysResolvedOnEveryPlan(t *testing.T) {
	// GIVEN: A week queued with company holidays while none are stored
	cal := &fakeCalendar{}
	s := schedule.NewSession("sess-2", schedule.Target{
		PackageID: "pkg-1",
		LineItems: []schedule.LineItem{{ServiceName: "posters", Quantity: 6}},
	}, nil, schedule.WithCalendar(cal))

	cfg := rangeConfig(0, "2025-03-03", "2025-03-08")
	cfg.UseCompanyHolidays = true
	plan, err := s.AddOrReplace(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, plan.Holidays)

	// WHEN: Wednesday is declared a holiday before commit
	cal.add(calendar.Holiday{Date: day("2025-03-05"), Name: "Offsite"})

	// THEN: Preview and commit both honour it
	plans, err := s.Preview(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, []calendar.Date{day("2025-03-05")}, plans[0].Holidays)

	rec := &recorder{}
	_, err = s.CommitAll(context.Background(), rec, nil)
	require.NoError(t, err)
	require.Len(t, rec.tasks, 6)
	perDay := map[string]int{}
	for _, task := range rec.tasks {
		perDay[task.StartDate.String()]++
	}
	assert.NotContains(t, perDay, "2025-03-05")
	assert.Equal(t, 2, perDay["2025-03-04"])
}

func TestSession_CompanyHolidayLookupFailure(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("holiday table locked")}
	s := schedule.NewSession("sess-3", schedule.Target{
		LineItems: []schedule.LineItem{{Quantity: 6}},
	}, nil, schedule.WithCalendar(cal))

	cfg := rangeConfig(0, "2025-03-03", "2025-03-08")
	cfg.UseCompanyHolidays = true
	_, err := s.AddOrReplace(context.Background(), cfg)

	assert.ErrorIs(t, err, cal.err)
	assert.Equal(t, 0, s.Len())
}

func TestSession_RejectsWithoutEnqueueing(t *testing.T) {
	s := newSession(31)

	_, err := s.AddOrReplace(context.Background(), rangeConfig(0, "2025-03-03", "2025-04-06"))
	assert.ErrorIs(t, err, schedule.ErrInexactDivision)
	assert.Equal(t, 0, s.Len())
}

func TestSession_UnknownLineItem(t *testing.T) {
	s := newSession(10)
	_, err := s.AddOrReplace(context.Background(), rangeConfig(4, "2025-03-10", "2025-03-14"))
	assert.ErrorIs(t, err, schedule.ErrValidation)
}

func TestSession_AddOrReplaceOverwrites(t *testing.T) {
	s := newSession(10)

	_, err := s.AddOrReplace(context.Background(), rangeConfig(0, "2025-03-10", "2025-03-14"))
	require.NoError(t, err)

	replacement := rangeConfig(0, "2025-03-17", "2025-03-21")
	replacement.AssigneeID = "emp-9"
	_, err = s.AddOrReplace(context.Background(), replacement)
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "emp-9", entries[0].AssigneeID)

	assert.True(t, s.Remove(0))
	assert.False(t, s.Remove(0))
	assert.Equal(t, 0, s.Len())
}

func TestSession_CommitAll_ProgressAcrossWholeQueue(t *testing.T) {
	// GIVEN: Two queued line items (10 units Mon-Fri with a Wednesday holiday,
	//        and 6 units Mon-Sat)
	// WHEN: Committing
	// THEN: 16 tasks persisted in order, progress runs 1..16 of 16, queue cleared

	s := newSession(10, 6)
	_, err := s.AddOrReplace(context.Background(), rangeConfig(1, "2025-03-17", "2025-03-22"))
	require.NoError(t, err)
	_, err = s.AddOrReplace(context.Background(), rangeConfig(0, "2025-03-10", "2025-03-14", "2025-03-12"))
	require.NoError(t, err)

	var calls [][2]int
	rec := &recorder{}
	result, err := s.CommitAll(context.Background(), rec, func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})
	require.NoError(t, err)

	require.Len(t, rec.tasks, 16)
	assert.Len(t, result.TaskIDs, 16)
	for i, c := range calls {
		assert.Equal(t, [2]int{i + 1, 16}, c)
	}

	// Line item 0 first, numbered within its own quantity
	assert.Equal(t, "Poster 1/10", rec.tasks[0].Description)
	assert.Equal(t, "Poster 10/10", rec.tasks[9].Description)
	assert.Equal(t, "Poster 1/6", rec.tasks[10].Description)
	assert.Equal(t, 0, rec.tasks[0].LineItemIndex())
	assert.Equal(t, 1, rec.tasks[10].LineItemIndex())
	assert.Equal(t, "service-1", rec.tasks[10].ServiceID)
	assert.Equal(t, "pkg-1", rec.tasks[10].PackageID)
	assert.Equal(t, schedule.PriorityHigh, rec.tasks[0].Priority)

	for i := 1; i < 10; i++ {
		assert.False(t, rec.tasks[i].StartDate.Before(rec.tasks[i-1].StartDate), "dates must ascend")
	}
	for _, task := range rec.tasks[:10] {
		assert.NotEqual(t, "2025-03-12", task.StartDate.String(), "nothing lands on the holiday")
	}

	assert.Equal(t, 0, s.Len())
}

func TestSession_CommitAll_PartialFailureKeepsPrefix(t *testing.T) {
	// GIVEN: A store that accepts 3 writes and then fails
	// WHEN: Committing 5 units
	// THEN: CommitError reports 3 committed, the queue is kept

	ctrl := gomock.NewController(t)
	creator := schedule.NewMockTaskCreator(ctrl)
	boom := errors.New("store unavailable")

	gomock.InOrder(
		creator.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return("t1", nil),
		creator.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return("t2", nil),
		creator.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return("t3", nil),
		creator.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return("", boom),
	)

	s := newSession(5)
	_, err := s.AddOrReplace(context.Background(), rangeConfig(0, "2025-03-10", "2025-03-14"))
	require.NoError(t, err)

	result, err := s.CommitAll(context.Background(), creator, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var commitErr *schedule.CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, 3, commitErr.Committed)
	assert.Equal(t, 5, commitErr.Total)
	assert.Equal(t, []string{"t1", "t2", "t3"}, result.TaskIDs)
	assert.Equal(t, 1, s.Len())
	assert.False(t, schedule.IsClientError(err))
}

func TestSession_CommitAll_EmptyQueue(t *testing.T) {
	s := newSession(5)
	_, err := s.CommitAll(context.Background(), &recorder{}, nil)
	assert.ErrorIs(t, err, schedule.ErrEmptyQueue)
}

// slowCreator counts writes and sleeps on each, so overlapping commits
// interleave.
type slowCreator struct {
	mu      sync.Mutex
	created int
}

func (c *slowCreator) CreateTask(_ context.Context, _ schedule.Task) (string, error) {
	time.Sleep(time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created++
	return fmt.Sprintf("t%d", c.created), nil
}

func TestSession_CommitAll_OverlappingCommitsCreateOnce(t *testing.T) {
	// GIVEN: 6 units queued over Mon..Sat
	s := newSession(6)
	_, err := s.AddOrReplace(context.Background(), rangeConfig(0, "2025-03-03", "2025-03-08"))
	require.NoError(t, err)

	// WHEN: Two commits run at once
	creator := &slowCreator{}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CommitAll(context.Background(), creator, nil)
		}(i)
	}
	wg.Wait()

	// THEN: Each unit is created once and exactly one commit succeeds
	assert.Equal(t, 6, creator.created)
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, schedule.ErrCommitInProgress) || errors.Is(err, schedule.ErrEmptyQueue), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, s.Len())
}

// gatedCreator blocks every write until release is closed.
type gatedCreator struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedCreator) CreateTask(_ context.Context, _ schedule.Task) (string, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return "t", nil
}

func TestSession_ChangesRejectedDuringCommit(t *testing.T) {
	// GIVEN: A commit blocked on its first write
	s := newSession(6, 6)
	_, err := s.AddOrReplace(context.Background(), rangeConfig(0, "2025-03-03", "2025-03-08"))
	require.NoError(t, err)

	creator := &gatedCreator{entered: make(chan struct{}), release: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := s.CommitAll(context.Background(), creator, nil)
		done <- err
	}()
	<-creator.entered

	// WHEN: Queueing another item and committing again
	_, addErr := s.AddOrReplace(context.Background(), rangeConfig(1, "2025-03-10", "2025-03-15"))
	_, commitErr := s.CommitAll(context.Background(), creator, nil)

	// THEN: Both are refused and the running commit completes
	assert.ErrorIs(t, addErr, schedule.ErrCommitInProgress)
	assert.ErrorIs(t, commitErr, schedule.ErrCommitInProgress)
	assert.False(t, schedule.IsClientError(commitErr))

	close(creator.release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, s.Len())

	// AND: The session accepts work again afterwards
	_, err = s.AddOrReplace(context.Background(), rangeConfig(1, "2025-03-10", "2025-03-15"))
	assert.NoError(t, err)
}
