package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-dashboard-server/internal/models"
)

func TestFilterByStatusAndUpcoming(t *testing.T) {
	now := baseTime
	list := []models.Appointment{
		appt("1", models.StatusPending, now),
		appt("2", models.StatusConfirmed, now.AddDate(0, 0, 1)),
	}

	got := FilterAppointments(list, Filter{Status: string(models.StatusConfirmed)}, now)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("2"), got[0].ID)

	stats := Summarize(list, now)
	assert.Equal(t, 1, stats.Upcoming)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Confirmed)
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	a := appt("1", models.StatusPending, baseTime)
	a.PatientName = "Alice Walker"
	a.Notes = "Follow-up on BLOOD work"
	b := appt("2", models.StatusPending, baseTime)
	b.PatientName = "Bob"
	b.DoctorName = "Dr. Alison"

	list := []models.Appointment{a, b}
	tests := []struct {
		term string
		want []models.ID
	}{
		{"", []models.ID{"1", "2"}},
		{"ALI", []models.ID{"1", "2"}},
		{"blood", []models.ID{"1"}},
		{"bob", []models.ID{"2"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			var ids []models.ID
			for _, x := range FilterAppointments(list, Filter{SearchTerm: tt.term, Sort: SortOldestFirst}, baseTime) {
				ids = append(ids, x.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterIsSubsetOfInput(t *testing.T) {
	var list []models.Appointment
	for i, s := range []models.AppointmentStatus{"pending", "confirmed", "cancelled", "completed", "pending"} {
		list = append(list, appt(string(rune('a'+i)), s, baseTime.Add(time.Duration(i)*time.Hour)))
	}
	in := make(map[models.ID]bool)
	for _, a := range list {
		in[a.ID] = true
	}

	for _, status := range []string{StatusAll, "pending", "confirmed", "cancelled", "completed"} {
		got := FilterAppointments(list, Filter{Status: status, SearchTerm: "patient"}, baseTime)
		assert.LessOrEqual(t, len(got), len(list))
		for _, a := range got {
			assert.True(t, in[a.ID])
			assert.True(t, status == StatusAll || string(a.Status) == status)
		}
	}
}

func TestFilterSortsNewestFirstByDefault(t *testing.T) {
	list := []models.Appointment{
		appt("1", models.StatusPending, baseTime),
		appt("2", models.StatusPending, baseTime.Add(2*time.Hour)),
		appt("3", models.StatusPending, baseTime.Add(time.Hour)),
	}
	got := FilterAppointments(list, Filter{}, baseTime)
	require.Len(t, got, 3)
	assert.Equal(t, []models.ID{"2", "3", "1"}, []models.ID{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, models.ID("1"), list[0].ID, "input must not be reordered")
}

func TestDateRanges(t *testing.T) {
	now := baseTime // Tuesday
	yesterday := appt("y", models.StatusConfirmed, now.AddDate(0, 0, -1))
	earlier := appt("e", models.StatusConfirmed, now.Add(-time.Hour))
	later := appt("l", models.StatusConfirmed, now.Add(time.Hour))
	nextMonth := appt("m", models.StatusConfirmed, now.AddDate(0, 1, 0))
	list := []models.Appointment{yesterday, earlier, later, nextMonth}

	ids := func(r DateRange) []models.ID {
		var out []models.ID
		for _, a := range FilterAppointments(list, Filter{Range: r, Sort: SortOldestFirst}, now) {
			out = append(out, a.ID)
		}
		return out
	}

	assert.Equal(t, []models.ID{"e", "l"}, ids(RangeToday))
	assert.Equal(t, []models.ID{"y"}, ids(RangePast))
	assert.Equal(t, []models.ID{"e", "l", "m"}, ids(RangeUpcoming))
	assert.Equal(t, []models.ID{"y", "e", "l"}, ids(RangeMonth))
	assert.Equal(t, []models.ID{"l"}, ids(RangeWeek))
	assert.Len(t, ids(RangeAll), 4)
}

func TestUpcomingCountsFromStartOfDay(t *testing.T) {
	now := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	midnight := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	list := []models.Appointment{
		appt("earlier-today", models.StatusConfirmed, now.Add(-2*time.Hour)),
		appt("midnight", models.StatusConfirmed, midnight),
		appt("yesterday", models.StatusConfirmed, midnight.Add(-time.Hour)),
		appt("tomorrow", models.StatusConfirmed, now.AddDate(0, 0, 1)),
		appt("pending-later", models.StatusPending, now.Add(time.Hour)),
	}
	assert.Equal(t, 2, Summarize(list, now).Upcoming)
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{Status: "cancelled", Range: RangeWeek, Sort: SortOldestFirst}.Validate())
	assert.ErrorIs(t, Filter{Status: "archived"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Range: "decade"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Sort: "random"}.Validate(), ErrInvalidFilter)
}

func TestSummarizeIgnoresFilterAndCountsStatuses(t *testing.T) {
	now := baseTime
	list := []models.Appointment{
		appt("1", models.StatusConfirmed, now.Add(-time.Minute)),
		appt("2", models.StatusConfirmed, now.Add(time.Minute)),
		appt("3", models.StatusCancelled, now.AddDate(0, 0, 2)),
		appt("4", models.StatusCompleted, now.AddDate(0, 0, -2)),
		appt("5", "unknown", now),
	}
	stats := Summarize(list, now)
	assert.Equal(t, SummaryStats{
		Total: 5, Today: 3, Pending: 0, Confirmed: 2, Completed: 1, Cancelled: 1, Upcoming: 2,
	}, stats)
}

func TestSummarizeTodayUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, loc)
	// 2024-03-11 23:00 UTC is 2024-03-12 09:00 in loc.
	a := appt("1", models.StatusPending, time.Date(2024, 3, 11, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, Summarize([]models.Appointment{a}, now).Today)
}

func TestEventWithoutEndLastsOneHourAcrossMidnight(t *testing.T) {
	start := time.Date(2024, 3, 12, 23, 30, 0, 0, time.UTC)
	events := ProjectEvents([]models.Appointment{appt("1", models.StatusPending, start)})
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 30, 0, 0, time.UTC), events[0].End)
	assert.Equal(t, "Patient 1 - Dr. Smith", events[0].Title)
	assert.Equal(t, start, events[0].Start)
}

func TestEventKeepsExplicitEnd(t *testing.T) {
	a := appt("1", models.StatusConfirmed, baseTime)
	end := baseTime.Add(90 * time.Minute)
	a.EndTime = &end
	events := ProjectEvents([]models.Appointment{a})
	assert.Equal(t, end, events[0].End)
	assert.Equal(t, a, events[0].Appointment)
}

func TestStatusColor(t *testing.T) {
	tests := map[models.AppointmentStatus]string{
		models.StatusConfirmed: ColorGreen,
		models.StatusPending:   ColorAmber,
		models.StatusCancelled: ColorRed,
		models.StatusCompleted: ColorBlue,
		"no-show":              ColorGray,
		"":                     ColorGray,
	}
	for status, want := range tests {
		assert.Equal(t, want, StatusColor(status), status)
	}
}

func TestEventStyleDependsOnlyOnStatus(t *testing.T) {
	a := appt("1", models.StatusConfirmed, baseTime)
	b := appt("2", models.StatusConfirmed, baseTime.AddDate(1, 0, 0))
	b.Notes = "different"
	events := ProjectEvents([]models.Appointment{a, b})
	assert.Equal(t, events[0].Style, events[1].Style)
	assert.Equal(t, ColorGreen, events[0].Style.BackgroundColor)
}
