package bdl

import (
	"strings"

	"github.com/aclements/envelope/internal/report"
)

func scheduleKind(r *attrReader) ScheduleKind {
	switch k := ScheduleKind(r.str("TYPE")); k {
	case Fraction, OnOff, Temperature:
		return k
	case "":
	default:
		r.invalidValue("TYPE", r.attrValue("TYPE"), "expected FRACTION, ON/OFF or TEMPERATURE")
	}
	return ""
}

func extractDaySchedule(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	d := &DaySchedule{Name: b.Name, Type: scheduleKind(r), Values: r.floats("VALUES"), Pos: b.Pos}
	if r.err == nil && len(d.Values) != 24 && len(d.Values) != 1 {
		r.invalidValue("VALUES", r.attrValue("VALUES"), "expected 24 hourly values or 1, found %d", len(d.Values))
	}
	return r.done(d)
}

func extractWeekSchedule(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	wk := &WeekSchedule{Name: b.Name, Type: scheduleKind(r), Days: r.names("DAY-SCHEDULES"), Pos: b.Pos}
	if r.err == nil && len(wk.Days) != 7 && len(wk.Days) != 1 {
		r.invalidValue("DAY-SCHEDULES", r.attrValue("DAY-SCHEDULES"), "expected 7 day schedules or 1, found %d", len(wk.Days))
	}
	return r.done(wk)
}

func extractYearSchedule(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	y := &YearSchedule{
		Name:   b.Name,
		Type:   scheduleKind(r),
		Days:   r.ints("DAY"),
		Months: r.ints("MONTH"),
		Weeks:  r.names("WEEK-SCHEDULES"),
		Pos:    b.Pos,
	}
	return r.done(y)
}

// extractConditions keeps the attributes of a SPACE-CONDITIONS or
// SYSTEM-CONDITIONS block as text. Quoted values of attributes ending in
// -SCHEDULE are references to year schedules.
func extractConditions(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	c := &Conditions{
		Name:      b.Name,
		System:    b.Type == "SYSTEM-CONDITIONS",
		Attrs:     r.raw(),
		Schedules: make(map[string]string),
		Pos:       b.Pos,
	}
	for _, a := range b.Attrs {
		if strings.HasSuffix(a.Key, "-SCHEDULE") && a.Value.Quoted && a.Value.Text != "" {
			c.Schedules[a.Key] = a.Value.Text
		}
	}
	return r.done(c)
}

func extractMeta(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	return r.done(&Meta{Name: b.Name, Type: b.Type, Attrs: r.raw(), Pos: b.Pos})
}
