package events

// Kafka topics consumed and produced by this service.
const (
	TopicSchedulingEvents = "scheduling.events"
	TopicIdentityEvents   = "identity.events"
)

// Identity event types this service reacts to.
const (
	UserDeactivated = "USER_DEACTIVATED"
)
