// Package mqtt provides MQTT client connectivity for glyphd.
//
// This package manages:
//   - Connection to the local broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// glyphd uses MQTT as the event bus between the phone side (companion
// app and platform shim, which publish battery telemetry and gesture
// events) and the daemon, which reacts by driving the glyph LEDs and
// publishes its own run and session state back.
//
//	phone publishers ↔ MQTT Broker ↔ glyphd
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllPhoneEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
