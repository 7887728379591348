package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reservationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduling_service",
		Subsystem: "booking",
		Name:      "reservations_total",
		Help:      "Seat reservation attempts by outcome.",
	}, []string{"outcome"})
	cancellationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduling_service",
		Subsystem: "booking",
		Name:      "cancellations_total",
		Help:      "Booking cancellation attempts by outcome.",
	}, []string{"outcome"})
	overbookAlarmCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduling_service",
		Subsystem: "availability",
		Name:      "overbooked_observations_total",
		Help:      "Times a session was observed with more confirmed bookings than capacity.",
	})
)

func init() {
	prometheus.MustRegister(reservationCounter, cancellationCounter, overbookAlarmCounter)
}

// RecordReservation counts a reservation attempt with its outcome
// ("success" or a failure code).
func RecordReservation(outcome string) {
	reservationCounter.WithLabelValues(outcome).Inc()
}

// RecordCancellation counts a cancellation attempt with its outcome.
func RecordCancellation(outcome string) {
	cancellationCounter.WithLabelValues(outcome).Inc()
}

// RecordOverbookedObservation counts a violated capacity invariant surfaced
// by the availability calculator.
func RecordOverbookedObservation() {
	overbookAlarmCounter.Inc()
}
