package calendar

// =============================================================================
// REDISTRIBUTION ENGINE
// =============================================================================

// smallLoad is the largest holiday load that moves as one block onto a single day.
const smallLoad = 2

// Extras maps a working day to the units it receives from displaced holidays.
type Extras map[string]int

// Get returns the extra units assigned to d.
func (e Extras) Get(d Date) int { return e[d.String()] }

func (e Extras) add(d Date, n int) { e[d.String()] += n }

// Total returns the sum of all extra units.
func (e Extras) Total() int {
	total := 0
	for _, n := range e {
		total += n
	}
	return total
}

// Redistribute moves the load of each holiday in days onto the surrounding
// working days (days minus every holiday). Each holiday carries unitsPerDay
// units and is resolved independently, in the order given:
//
//   - load <= 2: the whole load lands on the closest earlier working day, or
//     the closest later one when nothing precedes the holiday.
//   - load >= 3: one unit per day walking backward from the holiday, then one
//     unit per day walking forward. Passes repeat until the load is placed.
//
// Holidays that are not in days carry no load. If no working day exists at
// all the load cannot be placed and is dropped; callers reject such plans.
func Redistribute(days []Date, unitsPerDay int, holidays []Date) Extras {
	extras := Extras{}
	if unitsPerDay <= 0 || len(holidays) == 0 {
		return extras
	}

	scheduled := NewHolidaySet(days...)
	off := NewHolidaySet()
	for _, h := range holidays {
		if scheduled.Contains(h) {
			off.Add(h)
		}
	}

	var working []Date
	for _, d := range days {
		if !off.Contains(d) {
			working = append(working, d)
		}
	}
	SortDates(working)
	if len(working) == 0 {
		return extras
	}

	resolved := NewHolidaySet()
	for _, h := range holidays {
		if !off.Contains(h) || resolved.Contains(h) {
			continue
		}
		resolved.Add(h)

		before, after := split(working, h)
		load := unitsPerDay

		if load <= smallLoad {
			if len(before) > 0 {
				extras.add(before[len(before)-1], load)
			} else {
				extras.add(after[0], load)
			}
			continue
		}

		for load > 0 {
			for i := len(before) - 1; i >= 0 && load > 0; i-- {
				extras.add(before[i], 1)
				load--
			}
			for i := 0; i < len(after) && load > 0; i++ {
				extras.add(after[i], 1)
				load--
			}
		}
	}
	return extras
}

// split partitions sorted working days into those strictly before and strictly after h.
func split(working []Date, h Date) (before, after []Date) {
	for _, d := range working {
		switch {
		case d.Before(h):
			before = append(before, d)
		case d.After(h):
			after = append(after, d)
		}
	}
	return before, after
}
