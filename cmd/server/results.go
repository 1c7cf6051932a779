package main

import "log/slog"

// startResultDrainer consumes lookup results and logs them. It is the
// default consumer; a chat or push front-end would replace it by draining
// Runner.Results itself. The returned channel closes when the result queue
// is closed and fully drained.
func (app *application) startResultDrainer() <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for result := range app.runner.Results() {
			log := app.logger.With(
				slog.String("request_id", result.Request.ID.String()),
				slog.Int64("key_id", result.Request.KeyID),
				slog.String("account", result.Request.Account),
			)
			if result.Failed {
				log.Warn("key lookup failed", slog.String("message", result.Message))
				continue
			}
			log.Info("key lookup completed",
				slog.String("message", result.Message),
				slog.Int("characters", len(result.Summary.Characters)))
		}
		app.logger.Info("result drainer stopped")
	}()

	return done
}
