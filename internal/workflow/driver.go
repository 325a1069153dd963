package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/provisioning-service/internal/browser"
)

// Sleeper pauses between UI actions.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timeSleeper struct{}

func (timeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// driver runs page actions in order and stops at the first error; later
// calls become no-ops so phases read as straight-line scripts.
type driver struct {
	ctx          context.Context
	page         browser.Page
	sleeper      Sleeper
	markerPolls  int
	pollInterval time.Duration
	err          error
}

func (d *driver) navigate(url string) {
	if d.err != nil {
		return
	}
	if err := d.page.Goto(d.ctx, url); err != nil {
		d.err = fmt.Errorf("goto %s: %w", url, err)
	}
}

func (d *driver) fill(t browser.Target, value string) {
	if d.err != nil {
		return
	}
	if err := d.page.Fill(d.ctx, t, value); err != nil {
		d.err = fmt.Errorf("fill %s: %w", t, err)
	}
}

func (d *driver) click(t browser.Target) {
	if d.err != nil {
		return
	}
	if err := d.page.Click(d.ctx, t); err != nil {
		d.err = fmt.Errorf("click %s: %w", t, err)
	}
}

func (d *driver) press(t browser.Target, key string) {
	if d.err != nil {
		return
	}
	if err := d.page.Press(d.ctx, t, key); err != nil {
		d.err = fmt.Errorf("press %s on %s: %w", key, t, err)
	}
}

func (d *driver) selectOption(t browser.Target, value string) {
	if d.err != nil {
		return
	}
	if err := d.page.SelectOption(d.ctx, t, value); err != nil {
		d.err = fmt.Errorf("select %q in %s: %w", value, t, err)
	}
}

func (d *driver) wait(delay time.Duration) {
	if d.err != nil {
		return
	}
	if err := d.sleeper.Sleep(d.ctx, delay); err != nil {
		d.err = fmt.Errorf("wait %s: %w", delay, err)
	}
}

// expect asserts the page body contains m.Text. With markerPolls > 1 the body
// is re-read every pollInterval until the marker shows up or polls run out.
func (d *driver) expect(m Marker) {
	if d.err != nil {
		return
	}
	polls := d.markerPolls
	if polls < 1 {
		polls = 1
	}
	for i := 0; i < polls; i++ {
		if i > 0 {
			if err := d.sleeper.Sleep(d.ctx, d.pollInterval); err != nil {
				d.err = fmt.Errorf("wait for %q: %w", m.Text, err)
				return
			}
		}
		body, err := d.page.BodyText(d.ctx)
		if err != nil {
			d.err = fmt.Errorf("read page body: %w", err)
			return
		}
		if strings.Contains(body, m.Text) {
			return
		}
	}
	d.err = &MarkerError{Marker: m}
}
