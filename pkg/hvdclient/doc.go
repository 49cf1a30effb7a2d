// Package hvdclient implements the resource and collection model over the
// hvd hypervisor management API.
//
// A Remote represents one server endpoint and owns the connection session.
// Collections (Containers, Images, Networks, Profiles, StoragePools,
// Certificates, Operations) enumerate, fetch, and create resources of one
// kind; Resources are lazy handles whose detail snapshot is populated by
// Read or by a recursive listing, guarded against lost updates by the
// server-assigned ETag concurrency token.
//
//	remote, err := hvdclient.New(&hvd.Config{Address: "https://host:8443"})
//	if err != nil { ... }
//	if err := remote.Open(); err != nil { ... }
//	defer remote.Close()
//
//	container, err := remote.Containers().Get(ctx, "c1")
//	if err != nil { ... }
//
//	// update with the If-Match token from the read above
//	_, err = container.Update(ctx, map[string]interface{}{
//	  "config": map[string]interface{}{"limits.memory": "2GB"},
//	})
//
// Responses whose envelope is asynchronous yield an Operation, which can be
// waited on:
//
//	result, err := remote.Containers().Create(ctx, details)
//	if err != nil { ... }
//	if result.Operation != nil {
//	  _, err = result.Operation.Wait(ctx, 30*time.Second)
//	}
//
// Server-pushed events are consumed through a cancellable stream:
//
//	listener, err := remote.Events(ctx, func(ev hvd.Event) { ... },
//	  hvdclient.WithEventTypes("operation"))
//	if err != nil { ... }
//	defer listener.Stop()
package hvdclient
