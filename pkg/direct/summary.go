package direct

// Summary aggregates an illuminance field for reporting.
type Summary struct {
	Min  float64
	Max  float64
	Mean float64
	// UniformityRatio is Emin/Eavg.
	UniformityRatio float64
	// UniformityDiversity is Emin/Emax.
	UniformityDiversity float64
}

// Summarize computes field statistics. An empty field yields a zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	min := values[0]
	max := values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(values))

	s := Summary{Min: min, Max: max, Mean: mean}
	if mean > 1e-12 {
		s.UniformityRatio = min / mean
	}
	if max > 1e-12 {
		s.UniformityDiversity = min / max
	}
	return s
}
