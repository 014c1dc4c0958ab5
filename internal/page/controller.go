// Package page derives the visible prefix of the resolved sequence. The
// window grows by fixed batches on scroll-proximity signals and resets
// whenever the sort/filter inputs change identity.
package page

// DefaultBatchSize is the number of images added to the visible window per
// extension.
const DefaultBatchSize = 30

// Controller maintains visibleCount for the current resolved sequence.
// It is not safe for concurrent use; the engine serializes access.
type Controller struct {
	batchSize int
	visible   int
	length    int
	key       string
	extending bool
}

// New returns a controller with the default batch size.
func New() *Controller {
	return &Controller{batchSize: DefaultBatchSize}
}

// NewWithBatchSize returns a controller with a custom batch size,
// mainly for tests.
func NewWithBatchSize(n int) *Controller {
	if n < 1 {
		n = DefaultBatchSize
	}
	return &Controller{batchSize: n}
}

// Reset forgets the current window and key, used when a session is
// replaced wholesale.
func (c *Controller) Reset() {
	c.visible = 0
	c.length = 0
	c.key = ""
	c.extending = false
}

// Visible returns the current visible count.
func (c *Controller) Visible() int {
	return c.visible
}

// Sync informs the controller of a new resolved sequence identified by its
// sort/filter key. A key change resets the window to one batch; an
// unchanged key only clamps. The clamp is synchronous so no consumer can
// observe a count larger than the sequence, and an empty sequence always
// yields zero.
func (c *Controller) Sync(key string, length int) {
	c.length = length
	if key != c.key {
		c.key = key
		c.visible = min(c.batchSize, length)
		return
	}
	if c.visible > length {
		c.visible = length
	}
	if length == 0 {
		c.visible = 0
	} else if c.visible == 0 {
		// collection went from empty to non-empty under the same key
		c.visible = min(c.batchSize, length)
	}
}

// Extend grows the window by one batch in response to a viewport-proximity
// signal. Only one extension may be in flight: a signal arriving before
// ExtendDone is ignored, not queued. Returns whether the window grew.
func (c *Controller) Extend() bool {
	if c.extending || c.visible >= c.length {
		return false
	}
	c.extending = true
	c.visible = min(c.visible+c.batchSize, c.length)
	return true
}

// ExtendDone marks the in-flight extension as rendered, re-arming Extend.
func (c *Controller) ExtendDone() {
	c.extending = false
}

// Extending reports whether an extension is in flight.
func (c *Controller) Extending() bool {
	return c.extending
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
