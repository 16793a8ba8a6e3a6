package llap

// Stats holds engine counters. Values only grow.
type Stats struct {
	FramesReceived  uint64 // complete frames decoded from the radio
	FramesMalformed uint64 // frames dropped by the decoder
	FramesPublished uint64 // frames published to the broker
	FramesDropped   uint64 // frames discarded because no session was up
	PublishErrors   uint64 // publish calls that failed with a session up
	CommandsWritten uint64 // command frames written to the radio
	CommandErrors   uint64 // inbound messages that could not be mapped or written
	SerialErrors    uint64 // serial read failures
	Announcements   uint64 // status announcements published
	ConnectAttempts uint64 // broker connection attempts
	ConnectFailures uint64 // failed broker connection attempts
}

// Observer receives engine events, typically to export them as metrics.
// Implementations must be cheap; they run inside the control loop.
type Observer interface {
	FrameReceived()
	FrameMalformed()
	FramePublished()
	FrameDropped()
	PublishFailed()
	CommandWritten()
	CommandFailed()
	SerialFailed()
	Announced()
	ConnectAttempted(ok bool)
	StateChanged(state ConnectionState)
}

// nopObserver is used when no observer is configured.
type nopObserver struct{}

func (nopObserver) FrameReceived()               {}
func (nopObserver) FrameMalformed()              {}
func (nopObserver) FramePublished()              {}
func (nopObserver) FrameDropped()                {}
func (nopObserver) PublishFailed()               {}
func (nopObserver) CommandWritten()              {}
func (nopObserver) CommandFailed()               {}
func (nopObserver) SerialFailed()                {}
func (nopObserver) Announced()                   {}
func (nopObserver) ConnectAttempted(bool)        {}
func (nopObserver) StateChanged(ConnectionState) {}

// recorder updates Stats and forwards each event to the Observer.
type recorder struct {
	stats Stats
	obs   Observer
}

func newRecorder(obs Observer) *recorder {
	if obs == nil {
		obs = nopObserver{}
	}
	return &recorder{obs: obs}
}

func (r *recorder) frameReceived()  { r.stats.FramesReceived++; r.obs.FrameReceived() }
func (r *recorder) frameMalformed() { r.stats.FramesMalformed++; r.obs.FrameMalformed() }
func (r *recorder) framePublished() { r.stats.FramesPublished++; r.obs.FramePublished() }
func (r *recorder) frameDropped()   { r.stats.FramesDropped++; r.obs.FrameDropped() }
func (r *recorder) publishFailed()  { r.stats.PublishErrors++; r.obs.PublishFailed() }
func (r *recorder) commandWritten() { r.stats.CommandsWritten++; r.obs.CommandWritten() }
func (r *recorder) commandFailed()  { r.stats.CommandErrors++; r.obs.CommandFailed() }
func (r *recorder) serialFailed()   { r.stats.SerialErrors++; r.obs.SerialFailed() }
func (r *recorder) announced()      { r.stats.Announcements++; r.obs.Announced() }

func (r *recorder) connectAttempted(ok bool) {
	r.stats.ConnectAttempts++
	if !ok {
		r.stats.ConnectFailures++
	}
	r.obs.ConnectAttempted(ok)
}

func (r *recorder) stateChanged(s ConnectionState) { r.obs.StateChanged(s) }
