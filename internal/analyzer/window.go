package analyzer

// rollingMean is a fixed-period mean over a circular buffer.
type rollingMean struct {
	period int
	buf    []float64
	idx    int
	count  int
	sum    float64
}

func newRollingMean(period int) *rollingMean {
	return &rollingMean{period: period, buf: make([]float64, period)}
}

// push adds v and reports the mean once the window is full
func (r *rollingMean) push(v float64) (float64, bool) {
	if r.count >= r.period {
		r.sum -= r.buf[r.idx]
	}
	r.buf[r.idx] = v
	r.sum += v
	r.idx = (r.idx + 1) % r.period
	r.count++

	if r.count < r.period {
		return 0, false
	}
	return r.sum / float64(r.period), true
}

// wilder is Wilder's smoothing: the first value is the simple mean of the
// first period inputs, then avg = (prev*(n-1) + v) / n.
type wilder struct {
	period  int
	count   int
	sum     float64
	current float64
}

func newWilder(period int) *wilder {
	return &wilder{period: period}
}

func (w *wilder) push(v float64) (float64, bool) {
	w.count++
	if w.count <= w.period {
		w.sum += v
		if w.count < w.period {
			return 0, false
		}
		w.current = w.sum / float64(w.period)
		return w.current, true
	}
	n := float64(w.period)
	w.current = (w.current*(n-1) + v) / n
	return w.current, true
}

// ema is an exponential moving average seeded with the simple mean of its
// first period inputs, multiplier 2/(n+1).
type ema struct {
	period     int
	multiplier float64
	count      int
	sum        float64
	current    float64
}

func newEMA(period int) *ema {
	return &ema{period: period, multiplier: 2.0 / float64(period+1)}
}

func (e *ema) push(v float64) (float64, bool) {
	e.count++
	if e.count <= e.period {
		e.sum += v
		if e.count < e.period {
			return 0, false
		}
		e.current = e.sum / float64(e.period)
		return e.current, true
	}
	e.current = v*e.multiplier + e.current*(1-e.multiplier)
	return e.current, true
}
