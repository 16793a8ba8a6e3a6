// Package mqtt provides MQTT client connectivity for the OKMQTT bridge.
//
// This package manages:
//   - Clean-session connections with a retained last will
//   - Message publishing at QoS 0 or 1
//   - Topic subscriptions with wildcard support
//   - A bounded inbox that turns paho callbacks into polled messages
//
// # Architecture
//
// paho delivers messages on its own goroutines. The bridge engine runs a
// single cooperative loop, so the client only queues messages and the
// engine drains them with Poll, one per tick:
//
//	Broker → paho goroutine → inbox (bounded) → Client.Poll → Engine.Tick
//
// paho's automatic reconnect is disabled. The bridge supervisor calls
// Connect, counts failures and resubscribes, so reconnects happen at a
// point in the loop where no stale message can slip in first.
//
// # Security Considerations
//
//   - TLS is available via cfg.Broker.TLS (minimum TLS 1.2)
//   - Credential refusals are reported as ErrAuthRejected so they can be
//     told apart from an unreachable broker
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	err := client.Connect(ctx, mqtt.ClientID(cfg.MQTT), &mqtt.Will{
//	    Topic:   "ok/status",
//	    Payload: []byte("Restart: OKMQTT"),
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("ok/tx/#")
//
//	for {
//	    if msg, ok := client.Poll(); ok {
//	        handle(msg.Topic, msg.Payload)
//	    }
//	}
package mqtt
