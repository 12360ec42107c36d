package calcs

import "github.com/CodedInternet/firebot/onboard"

// sensor positions across the front of the bot, left to right
var sensors = []struct {
	direction onboard.HazardDirection
	position  float64
}{
	{onboard.HazardLeft, -1},
	{onboard.HazardCenter, 0},
	{onboard.HazardRight, 1},
}

func calculateCentroid(weights, positions []float64) (centroid float64, ok bool) {
	var sum, X float64

	for i, w := range weights {
		sum += w
		X += w * positions[i]
	}

	if sum <= 0 {
		return 0, false
	}
	return X / sum, true
}

// HazardBearing estimates where the fire is from -1 (left sensor) to 1 (right sensor).
// Intensity is the drop of each reading below fullScale. ok is false when no sensor sees anything.
func HazardBearing(scan onboard.Scan, fullScale int) (bearing float64, ok bool) {
	var weights, pos []float64

	for _, s := range sensors {
		reading := scan.Readings[s.direction]
		if reading == nil {
			continue
		}

		intensity := fullScale - *reading
		if intensity < 0 {
			intensity = 0
		}
		weights = append(weights, float64(intensity))
		pos = append(pos, s.position)
	}

	return calculateCentroid(weights, pos)
}
