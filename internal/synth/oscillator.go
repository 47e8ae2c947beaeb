package synth

// oscillator is one entry of the pool. Only the core whose render range contains the
// oscillator touches it during a period.
type oscillator struct {
	wave    Wave
	phase   float64
	step    float64 // Phase increment per frame.
	amp     float64
	level   float64 // Envelope level in [0,1].
	attack  float64 // Envelope increment per frame while gated.
	release float64 // Envelope decrement per frame after release.
	gate    bool
}

func (o *oscillator) silent() bool { return !o.gate && o.level <= 0 }

func (o *oscillator) start(w Wave, freq, amp float64, sampleRate int, p Patch) {
	o.wave = w
	o.step = freq / float64(sampleRate)
	o.amp = amp
	o.attack = perFrame(p.AttackMs, sampleRate)
	o.release = perFrame(p.ReleaseMs, sampleRate)
	o.gate = true
}

func (o *oscillator) stop() { o.gate = false }

// render adds the oscillator's output for len(dst) frames into dst.
func (o *oscillator) render(dst []float64) {
	for f := range dst {
		if o.gate {
			o.level = min(1, o.level+o.attack)
		} else {
			o.level = max(0, o.level-o.release)
			if o.level == 0 {
				return
			}
		}
		dst[f] += o.wave.sample(o.phase) * o.amp * o.level
		o.phase += o.step
		if o.phase >= 1 {
			o.phase -= float64(int(o.phase))
		}
	}
}

func perFrame(ms float64, sampleRate int) float64 {
	frames := ms * float64(sampleRate) / 1000
	if frames < 1 {
		return 1
	}
	return 1 / frames
}
