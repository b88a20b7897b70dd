package services

import (
	"fmt"
	"math"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
)

// MaxTaskPoints caps a single task's score so it fits the points column and sums safely.
const MaxTaskPoints = math.MaxInt32

// CalculatePoints applies the template table: floor((base + perUnit*target) * multiplier).
// Qualitative tasks ignore target.
func CalculatePoints(template constants.TaskTemplate, target int, multiplier float64) (int, error) {
	rule, ok := template.Rule()
	if !ok {
		return 0, common.NewInvalidInput(constants.MsgInvalidTemplate)
	}
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return 0, common.NewInvalidInput(constants.MsgInvalidMultiplier)
	}

	raw := rule.BasePoints
	if rule.Bounded {
		if target < rule.MinTarget || target > rule.MaxTarget {
			return 0, common.NewInvalidInput(
				fmt.Sprintf(constants.MsgTargetOutOfRange, rule.MinTarget, rule.MaxTarget, rule.DefaultUnit),
			)
		}
		raw += rule.PointsPerUnit * target
	}

	points := math.Floor(float64(raw) * multiplier)
	if points > MaxTaskPoints {
		return 0, common.NewInvalidInput(fmt.Sprintf(constants.MsgPointsTooLarge, MaxTaskPoints))
	}
	return int(points), nil
}
