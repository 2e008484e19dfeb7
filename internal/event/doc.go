/*
Package event is a small, type-safe pub/sub bus used to surface session
lifecycle transitions to a host (CLI, HTTP front door) without coupling the
session engine to any particular presentation layer.

# Event Types

  - session.started / session.completed / session.failed: terminal and
    initial lifecycle transitions.
  - session.question / session.resumed: the ask_user pause/resume cycle.
  - cost.warning / cost.limit_exceeded: cost-tracker threshold crossings.
  - file.edited: a VFS write or edit mutated a path.
  - tool.dispatched: one structured diagnostic line per tool call.

# Usage

	unsubscribe := event.Subscribe(event.SessionCompleted, func(e event.Event) {
		data := e.Data.(event.SessionCompletedData)
		log.Printf("session %s completed, cost=%f", data.SessionID, data.Cost)
	})
	defer unsubscribe()

PublishSync calls subscribers synchronously in the publisher's goroutine;
subscribers must not block or re-enter Publish/PublishSync. Publish spawns one
goroutine per subscriber.

# Testing

event.Reset() discards the global bus's subscribers; use it in test cleanup.
*/
package event
