// Package canboard provides type-safe Go definitions, the Redis schema and the
// client transport shared between the canboard editor client and the backend
// that owns the CAN network model.
//
// # Overview
//
// The backend is the single source of truth for a CAN network description:
// buses, nodes, messages, signals and the signal types, units and enums they
// reference. Clients never edit the model directly. They call remote
// procedures (for example "BusService.UpdateName") and receive the resulting
// entity snapshot in the reply. Independently, the backend pushes
// notifications when something changes behind the client's back, most often
// because of an undo or redo.
//
// # Transport
//
// Both directions run over Redis:
//
//   - RPC requests are pushed onto a per-instance list and answered on a
//     per-request reply list. The client blocks on the reply with a timeout.
//   - Push notifications are Pub/Sub messages. Each subscription decodes the
//     payload once into a concrete Go type before handing it to the caller.
//
// # Multi-Instance Support
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so that
// several editor sessions can share one Redis server without interference.
//
// # Usage Example
//
//	client, err := canboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	var bus canboard.Bus
//	err = client.Invoke(ctx, canboard.ProcBusUpdateName, &bus, busID, canboard.UpdateNameReq{Name: "powertrain"})
//
//	sub, err := canboard.SubscribeModify[canboard.Bus](ctx, client, canboard.KindBus)
//	for bus := range sub.Events() {
//		fmt.Println("bus changed:", bus.Name)
//	}
//
// # Redis Schema
//
// RPC requests: canboard:{instance}:rpc:requests
// RPC replies: canboard:{instance}:rpc:reply:{request_id}
// Last history: canboard:{instance}:history
//
// Sidebar events: canboard:{instance}:events:sidebar
// History events: canboard:{instance}:events:history-change
// Modify events: canboard:{instance}:events:history-{kind}-modify
package canboard
