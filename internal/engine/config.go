package engine

type Config struct {
	// Events buffered between ingress and the engine loop
	QueueSize int `envconfig:"QUEUE_SIZE" default:"256" validate:"min:1"`

	// Starting point of the least-launched search: trigger or scan. Both pick
	// the same least-launched game.
	LeastSeeding string `envconfig:"LEAST_SEEDING" default:"trigger" validate:"in:trigger,scan"`
}
