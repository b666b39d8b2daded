// handlers/live.go - Websocket feed of promotion and unlock events
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/MantasDr/frontas/services"
)

// LiveEventsUpgrade gates /ws to real websocket upgrade requests.
func LiveEventsUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// LiveEvents streams progression events to the connected client until either
// side goes away.
var LiveEvents = websocket.New(func(conn *websocket.Conn) {
	defer conn.Close()

	svc := services.GetProgressionService()
	if svc == nil {
		return
	}

	events := svc.Events().Subscribe()
	defer svc.Events().Unsubscribe(events)

	// Drain reads so we notice the client hanging up
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
})
