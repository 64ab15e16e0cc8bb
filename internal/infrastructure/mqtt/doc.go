// Package mqtt provides the message bus gateway for lampdirector.
//
// This package manages:
//   - Connection to the broker with backoff on the first attempt and
//     auto-reconnect afterwards
//   - Publishing, both acknowledged (Publish) and fire-and-forget (PublishAsync)
//   - Topic subscriptions, restored after every reconnect
//   - Last Will and Testament (LWT) plus retained online/offline status
//
// # Delivery
//
// Inbound messages are delivered one at a time, in order, to the registered
// MessageHandler. Handler panics are recovered and handler errors are logged
// at warn level; neither stops delivery of later messages.
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topic.Wildcard(), 0, controller.HandleMessage)
//
//	pub := client.NewPublisher(0)
//	pub.Publish("dev/request/desk-lamp", payload)
package mqtt
