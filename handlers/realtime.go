package handlers

import (
	"github.com/sooryaah/imat-lms/realtime"
	"github.com/sooryaah/imat-lms/services"
)

// RT and Producer are wired once at startup, before routes are mounted.
var (
	RT       *realtime.Service
	Producer *services.NotificationProducer
)

func InitRealtime(rt *realtime.Service, producer *services.NotificationProducer) {
	RT = rt
	Producer = producer
}
