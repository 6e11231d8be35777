package spc

import (
	"fmt"

	"MetricPulse/internal/domain/models"
)

const (
	// maxLockIterations bounds the exclude-and-recompute loop. In practice the
	// excluded set stabilizes within two or three passes.
	maxLockIterations = 10
	// maxOutlierFraction is the largest share of points that auto-lock may
	// treat as outliers. Beyond it the process itself is unstable and locking
	// would just hide that.
	maxOutlierFraction = 0.2
)

func (Engine) ShouldAutoLock(points []models.DataPoint) bool {
	return ShouldAutoLock(points)
}

// ShouldAutoLock reports whether the series looks like a stable process
// distorted by a handful of outliers: enough points to compute limits at all,
// at least one outside-limit point, and no more than maxOutlierFraction of
// the series excluded once the locker converges.
func ShouldAutoLock(points []models.DataPoint) bool {
	if len(points) < MinimumPoints {
		return false
	}
	limits, _ := ComputeLimits(points, false)
	raw := detectOutsideLimits(points, newRefLines(len(points), limits, nil))
	if len(raw) == 0 {
		return false
	}
	_, excluded := LockWithOutlierRemoval(points)
	return float64(len(excluded)) <= maxOutlierFraction*float64(len(points))
}

// LockWithOutlierRemoval computes limits, excludes every outside-limit point,
// and recomputes over the survivors until the excluded set reaches a fixed
// point. Excluded indices always refer to the original sequence. The loop
// terminates for any finite input: the excluded set only grows, the retained
// floor stops it shrinking past minimumRetainedPoints, and the iteration cap
// backstops both. Locked limits always use the mean center; the exclusion of
// outliers is what provides robustness here, so the median option does not
// apply.
func LockWithOutlierRemoval(points []models.DataPoint) (models.XMRLimits, []int) {
	excluded := map[int]bool{}

	for iter := 0; iter < maxLockIterations; iter++ {
		retained, origIdx := retain(points, excluded)
		limits, _ := ComputeLimits(retained, false)
		if len(retained) <= minimumRetainedPoints {
			break
		}

		out := detectOutsideLimits(retained, newRefLines(len(retained), limits, nil))
		grew := false
		for _, i := range out {
			if len(points)-len(excluded) <= minimumRetainedPoints {
				break
			}
			if !excluded[origIdx[i]] {
				excluded[origIdx[i]] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	// Recompute over the final retained set so the returned limits agree
	// with the excluded set even when the iteration cap fires right after
	// a growing pass.
	retained, _ := retain(points, excluded)
	limits, _ := ComputeLimits(retained, false)
	return limits, sortedKeys(excluded)
}

func (Engine) LockWithOutlierRemoval(points []models.DataPoint) (models.XMRLimits, []int) {
	return LockWithOutlierRemoval(points)
}

// LockWithExclusions recomputes limits over the series minus the
// caller-chosen excluded indices. Out-of-range indices are ignored; an error
// is returned when fewer than minimumRetainedPoints would remain.
func LockWithExclusions(points []models.DataPoint, excluded []int) (models.XMRLimits, error) {
	skip := map[int]bool{}
	for _, i := range excluded {
		if i >= 0 && i < len(points) {
			skip[i] = true
		}
	}
	retained, _ := retain(points, skip)
	if len(retained) < minimumRetainedPoints {
		return models.XMRLimits{}, fmt.Errorf("lock exclusions leave %d of %d points, need at least %d",
			len(retained), len(points), minimumRetainedPoints)
	}
	limits, _ := ComputeLimits(retained, false)
	return limits, nil
}

func (Engine) LockWithExclusions(points []models.DataPoint, excluded []int) (models.XMRLimits, error) {
	return LockWithExclusions(points, excluded)
}

// retain filters points by the excluded set, preserving order, and returns
// the original index of each survivor.
func retain(points []models.DataPoint, excluded map[int]bool) ([]models.DataPoint, []int) {
	kept := make([]models.DataPoint, 0, len(points))
	origIdx := make([]int, 0, len(points))
	for i, p := range points {
		if !excluded[i] {
			kept = append(kept, p)
			origIdx = append(origIdx, i)
		}
	}
	return kept, origIdx
}
