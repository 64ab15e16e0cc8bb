// Package influxdb provides InfluxDB connectivity for lampdirector.
//
// It wraps the official influxdb-client-go v2 library and records lamp
// telemetry as three measurements, all tagged with device_id:
//
//	illuminance   value=<reading>
//	motion        active=<bool>
//	lamp_command  r=,g=,b=   (tag reason)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	obs := influxdb.NewObserver(client, cfg.Device.ID)
//
// Writes never block the caller. Points go through an in-memory queue of
// queue_size entries and are then batched according to batch_size and
// flush_interval. Points arriving while the queue is full are dropped and
// counted by Dropped. Batch errors are delivered through SetOnError.
package influxdb
