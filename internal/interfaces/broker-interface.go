package interfaces

// ProducerHandler pushes account events onto the broker. Implementations
// must treat an unconfigured broker as a silent no-op.
type ProducerHandler interface {
	PublishMessage(key, value []byte) error
}
