package pipeline

import "context"

// secondary is the second-core render worker. It never initiates work: each start
// notification renders the secondary range once and answers with done.
func (p *Pipeline) secondary(ctx context.Context) {
	unlock := p.bind(secondary)
	defer unlock()

	r := p.cfg.Ranges[secondary]
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.start.C():
		}
		p.cfg.Engine.Render(r, secondary)
		p.done.Notify()
	}
}
