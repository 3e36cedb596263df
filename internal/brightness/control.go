package brightness

import (
	"context"

	"codeberg.org/mutker/batterypanel/internal/logger"
)

// Range is the usable slider range of a backlight.
type Range struct {
	Min, Max, Step int
}

// NewRange derives the slider range from the hardware maximum: the
// bottom tenth is excluded and steps target roughly one percent.
func NewRange(maxLevel int) Range {
	minLevel := maxLevel / 10
	span := maxLevel - minLevel

	step := 1
	if span > 100 {
		step = span / 100
	}

	return Range{Min: minLevel, Max: maxLevel, Step: step}
}

// Clamp limits level to the range.
func (r Range) Clamp(level int) int {
	if level < r.Min {
		return r.Min
	}
	if level > r.Max {
		return r.Max
	}
	return level
}

// Control is the brightness slider's model.
type Control struct {
	enabled   bool
	rng       Range
	current   int
	debouncer *Debouncer
}

// Setup reads the backlight through helper. When either read fails or
// reports a negative level, the returned control is disabled and never
// writes.
func Setup(ctx context.Context, helper Helper, log logger.Logger, opts ...Option) *Control {
	maxLevel, err := helper.MaxBrightness(ctx)
	if err != nil || maxLevel < 0 {
		log.Warn().Err(err).Int("max", maxLevel).Msg("Brightness control unavailable")
		return &Control{debouncer: NewDebouncer(nil, log, opts...)}
	}

	current, err := helper.Brightness(ctx)
	if err != nil || current < 0 {
		log.Warn().Err(err).Int("current", current).Msg("Brightness control unavailable")
		return &Control{debouncer: NewDebouncer(nil, log, opts...)}
	}

	rng := NewRange(maxLevel)
	log.Debug().
		Int("min", rng.Min).
		Int("max", rng.Max).
		Int("step", rng.Step).
		Int("current", current).
		Msg("Brightness control ready")

	return &Control{
		enabled:   true,
		rng:       rng,
		current:   current,
		debouncer: NewDebouncer(helper, log, opts...),
	}
}

// Enabled reports whether the control can write.
func (c *Control) Enabled() bool {
	return c.enabled
}

// Range returns the slider range.
func (c *Control) Range() Range {
	return c.rng
}

// Value returns the slider position.
func (c *Control) Value() int {
	return c.current
}

// Set moves the slider to level and requests a debounced write. It
// returns the clamped position.
func (c *Control) Set(level int) int {
	if !c.enabled {
		return c.current
	}

	c.current = c.rng.Clamp(level)
	c.debouncer.Request(c.current)

	return c.current
}

// Nudge moves the slider by steps increments.
func (c *Control) Nudge(steps int) int {
	return c.Set(c.current + steps*c.rng.Step)
}

// Close cancels any pending write.
func (c *Control) Close() {
	c.debouncer.Close()
}
