// Package resource provides a fluent builder for single HTTP requests
// with asynchronous dispatch and normalized result delivery.
//
// A Resource is created by a method factory (Get, Post, Put, Delete,
// Head), configured through chained calls, and dispatched with Send:
//
//	resource.Post("https://api.example.com/users").
//		Basic("joe", "secret").
//		Form("name", "joe").
//		Response(func(ok bool, body map[string]any) {
//			// runs on the completion loop
//		}).
//		Send()
//
// Send assembles the request synchronously, then hands it to the
// resource's private work queue where the network call blocks a worker
// goroutine. The result is classified, JSON-decoded, and delivered on a
// separate completion loop, so the handler never runs on the network
// goroutine. Success requires a 2xx status and an application/json
// response; every other outcome arrives as a failure whose body holds a
// single "ErrorMessage" string. The outcome can also be polled through
// IsComplete, IsSuccess, IsFailure, and Body.
//
// A Resource belongs to one call chain. Builder calls after Send, or
// concurrent Send calls on the same instance, are not supported.
package resource
