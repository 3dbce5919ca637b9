package oracle

// Sample is one time point of the stimulus and output voltages
type Sample struct {
	Time float64
	In   float64
	Out  float64
}

// MeasureDelay finds the first time the stimulus rises through half the
// supply and then the first crossing of half the supply by the output in
// the given direction. Crossing times are linearly interpolated between
// samples. Without both crossings the outcome is NoTransition.
func MeasureDelay(samples []Sample, supply float64, edge Edge) Outcome {
	half := supply / 2

	inIdx := -1
	for i, s := range samples {
		if s.In >= half {
			inIdx = i
			break
		}
	}
	if inIdx < 0 {
		return NoTransition()
	}
	tIn := samples[inIdx].Time
	if inIdx > 0 {
		tIn = interpolate(samples[inIdx-1].Time, samples[inIdx-1].In, samples[inIdx].Time, samples[inIdx].In, half)
	}

	reached := func(v float64) bool {
		if edge == Falling {
			return v <= half
		}
		return v >= half
	}

	for i := inIdx; i < len(samples); i++ {
		if !reached(samples[i].Out) {
			continue
		}
		if i == 0 || reached(samples[i-1].Out) {
			// already on the target side: not a transition
			continue
		}
		prev := samples[i-1]
		tOut := interpolate(prev.Time, prev.Out, samples[i].Time, samples[i].Out, half)
		if tOut < tIn {
			tOut = samples[i].Time
		}
		if delay := tOut - tIn; delay > 0 {
			return Transitioned(delay)
		}
	}
	return NoTransition()
}

func interpolate(t0, v0, t1, v1, level float64) float64 {
	if v1 == v0 {
		return t1
	}
	return t0 + (level-v0)*(t1-t0)/(v1-v0)
}
