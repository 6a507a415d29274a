package audio

import "time"

// reporter delivers the status reports of one resource from a single goroutine,
// so reports reach onStatus in the order they were captured.
type reporter struct {
	interval time.Duration
	ended    chan struct{}
	done     chan struct{}

	// status captures a periodic report. ok is false once the resource is released.
	status func() (st Status, ok bool)
	// finish marks the end of the stream. ok is false when there is nothing to report.
	finish   func() (st Status, ok bool)
	onStatus StatusFunc
}

func newReporter(interval time.Duration, status, finish func() (Status, bool), onStatus StatusFunc) *reporter {
	return &reporter{
		interval: interval,
		ended:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		status:   status,
		finish:   finish,
		onStatus: onStatus,
	}
}

// notifyEnd records that the stream ended. It never blocks, so it is safe to
// call from the speaker goroutine.
func (p *reporter) notifyEnd() {
	select {
	case p.ended <- struct{}{}:
	default:
	}
}

// stop ends run. It must be called at most once.
func (p *reporter) stop() {
	close(p.done)
}

func (p *reporter) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-p.ended:
			st, ok := p.finish()
			if !ok {
				continue
			}
			st.JustFinished = true
			p.onStatus(st)
		case <-ticker.C:
			st, ok := p.status()
			if !ok {
				return
			}
			p.onStatus(st)
		}
	}
}
