// Package hvd provides the wire-level types, errors, and configuration for
// working with the hvd hypervisor management API.
//
// # Overview
//
// Every hvd API response carries the same JSON envelope:
//
//	{"type": "sync"|"async"|"error", "metadata": {...}, "error": "...", "error_code": N}
//
// This package defines the decoded form of that envelope (Response), the
// event type pushed over the streaming connection (Event), the error types
// raised by the transport (APIError, StatusError), and the client
// configuration (Config). The resource and collection model built on top of
// these types lives in the hvdclient package; most consumers should import
// hvdclient to construct a Remote and interact with the API through it.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/hvd-io/hvd-client/pkg/hvd"
//	  "github.com/hvd-io/hvd-client/pkg/hvdclient"
//	)
//
//	func example() {
//	  remote, err := hvdclient.New(&hvd.Config{Address: "unix://"})
//	  if err != nil { log.Fatal(err) }
//	  if err := remote.Open(); err != nil { log.Fatal(err) }
//	  defer remote.Close()
//
//	  containers, err := remote.Containers().Read(context.Background(), true)
//	  if err != nil { log.Fatal(err) }
//	  _ = containers
//	}
package hvd
