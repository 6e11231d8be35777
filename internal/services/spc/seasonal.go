package spc

import (
	"fmt"
	"time"

	"MetricPulse/internal/domain/models"
)

func (Engine) DeterminePeriodicity(points []models.DataPoint) models.Period {
	return DeterminePeriodicity(points)
}

// DeterminePeriodicity infers the seasonal period from the modal gap between
// consecutive samples. Sub-week cadence repeats weekly, roughly-weekly
// cadence repeats monthly, and so on up; sparser than quarterly data carries
// no usable cycle.
func DeterminePeriodicity(points []models.DataPoint) models.Period {
	if len(points) < 2 {
		return models.PeriodNone
	}

	counts := map[int]int{}
	for i := 1; i < len(points); i++ {
		gap := points[i].Timestamp.Sub(points[i-1].Timestamp)
		days := int(gap.Round(24*time.Hour) / (24 * time.Hour))
		counts[days]++
	}
	modal, best := 0, 0
	for days, c := range counts {
		if c > best || (c == best && days < modal) {
			modal, best = days, c
		}
	}

	switch {
	case modal < 7:
		return models.PeriodWeek
	case modal < 28:
		return models.PeriodMonth
	case modal < 90:
		return models.PeriodQuarter
	case modal < 360:
		return models.PeriodYear
	default:
		return models.PeriodNone
	}
}

// phaseSlots is the number of phase positions per period/grouping pair.
// Absence means the pair is unsupported.
var phaseSlots = map[models.Period]map[models.Grouping]int{
	models.PeriodWeek: {
		models.GroupingDay: 7,
	},
	models.PeriodMonth: {
		models.GroupingDay:  31,
		models.GroupingWeek: 5,
	},
	models.PeriodQuarter: {
		models.GroupingMonth: 3,
	},
	models.PeriodYear: {
		models.GroupingMonth:   12,
		models.GroupingQuarter: 4,
	},
}

// defaultGrouping is each period's native phase grain.
var defaultGrouping = map[models.Period]models.Grouping{
	models.PeriodWeek:    models.GroupingDay,
	models.PeriodMonth:   models.GroupingWeek,
	models.PeriodQuarter: models.GroupingMonth,
	models.PeriodYear:    models.GroupingMonth,
}

// resolveGrouping validates the period/grouping pair, substituting the
// period's native grouping for GroupingDefault, and returns the phase count.
func resolveGrouping(period models.Period, grouping models.Grouping) (models.Grouping, int, error) {
	slots, ok := phaseSlots[period]
	if !ok {
		return "", 0, fmt.Errorf("no seasonal phases for period %q", period)
	}
	if grouping == models.GroupingDefault {
		grouping = defaultGrouping[period]
	}
	n, ok := slots[grouping]
	if !ok {
		return "", 0, fmt.Errorf("grouping %q is not supported for period %q", grouping, period)
	}
	return grouping, n, nil
}

// phaseIndex maps a timestamp to its phase slot within the period.
func phaseIndex(t time.Time, period models.Period, grouping models.Grouping) int {
	switch {
	case period == models.PeriodWeek && grouping == models.GroupingDay:
		return int(t.Weekday())
	case period == models.PeriodMonth && grouping == models.GroupingDay:
		return t.Day() - 1
	case period == models.PeriodMonth && grouping == models.GroupingWeek:
		return (t.Day() - 1) / 7
	case period == models.PeriodQuarter && grouping == models.GroupingMonth:
		return (int(t.Month()) - 1) % 3
	case period == models.PeriodYear && grouping == models.GroupingMonth:
		return int(t.Month()) - 1
	case period == models.PeriodYear && grouping == models.GroupingQuarter:
		return (int(t.Month()) - 1) / 3
	default:
		return 0
	}
}

func (Engine) ComputeSeasonalFactors(points []models.DataPoint, period models.Period, grouping models.Grouping) (models.SeasonalProfile, error) {
	return ComputeSeasonalFactors(points, period, grouping)
}

// ComputeSeasonalFactors estimates one multiplicative factor per phase slot:
// the ratio of the phase mean to the grand mean. Phases with no samples, a
// zero phase mean, or a zero grand mean keep the neutral factor 1 so
// ApplyFactors leaves them untouched.
func ComputeSeasonalFactors(points []models.DataPoint, period models.Period, grouping models.Grouping) (models.SeasonalProfile, error) {
	grouping, slots, err := resolveGrouping(period, grouping)
	if err != nil {
		return models.SeasonalProfile{}, err
	}

	sums := make([]float64, slots)
	counts := make([]int, slots)
	grand := 0.0
	for _, p := range points {
		i := phaseIndex(p.Timestamp, period, grouping)
		sums[i] += p.Value
		counts[i]++
		grand += p.Value
	}

	factors := make([]float64, slots)
	for i := range factors {
		factors[i] = 1
	}
	if len(points) > 0 {
		grandMean := grand / float64(len(points))
		if grandMean != 0 {
			for i := range factors {
				if counts[i] == 0 {
					continue
				}
				phaseMean := sums[i] / float64(counts[i])
				if phaseMean != 0 {
					factors[i] = phaseMean / grandMean
				}
			}
		}
	}

	return models.SeasonalProfile{Period: period, Grouping: grouping, Factors: factors}, nil
}

func (Engine) ApplyFactors(points []models.DataPoint, profile models.SeasonalProfile) ([]models.DataPoint, error) {
	return ApplyFactors(points, profile)
}

// ApplyFactors returns a deseasonalized copy of points, dividing each value
// by its phase factor. The profile's factor count must match the phase count
// of its period/grouping pair; zero or negative factors are treated as
// neutral.
func ApplyFactors(points []models.DataPoint, profile models.SeasonalProfile) ([]models.DataPoint, error) {
	grouping, slots, err := resolveGrouping(profile.Period, profile.Grouping)
	if err != nil {
		return nil, err
	}
	if len(profile.Factors) != slots {
		return nil, fmt.Errorf("seasonal profile has %d factors, period %q with grouping %q needs %d",
			len(profile.Factors), profile.Period, grouping, slots)
	}

	out := make([]models.DataPoint, len(points))
	for i, p := range points {
		out[i] = p
		f := profile.Factors[phaseIndex(p.Timestamp, profile.Period, grouping)]
		if f > 0 {
			out[i].Value = p.Value / f
		}
	}
	return out, nil
}
