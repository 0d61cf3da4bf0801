package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	polls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shmchat_polls_total",
		Help: "Poll ticks run across all rooms.",
	})

	framesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shmchat_frames_received_total",
		Help: "Changed frames decoded into messages, per room.",
	}, []string{"room"})

	framesMalformed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shmchat_frames_malformed_total",
		Help: "Changed frames without a sender separator, per room.",
	}, []string{"room"})

	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shmchat_messages_sent_total",
		Help: "Frames written by this process, per room.",
	}, []string{"room"})

	framesTruncated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shmchat_frames_truncated_total",
		Help: "Frames cut short to fit the segment.",
	})

	rooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shmchat_rooms",
		Help: "Rooms currently open in this process.",
	})
)

func init() {
	prometheus.MustRegister(polls, framesReceived, framesMalformed, messagesSent, framesTruncated, rooms)
}

func label(room int) string { return strconv.Itoa(room) }

func Poll() { polls.Inc() }
func FrameReceived(room int) { framesReceived.WithLabelValues(label(room)).Inc() }
func FrameMalformed(room int) { framesMalformed.WithLabelValues(label(room)).Inc() }
func MessageSent(room int) { messagesSent.WithLabelValues(label(room)).Inc() }
func FrameTruncated() { framesTruncated.Inc() }
func RoomsOpen(n int) { rooms.Set(float64(n)) }
