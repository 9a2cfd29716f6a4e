// Package dispatch provides the execution primitives behind asynchronous
// request delivery:
//   - Queue, a priority-ordered work queue drained by a single worker
//     goroutine (one per resource)
//   - Loop, a serial executor that plays the role of the fixed
//     completion context response handlers run on
package dispatch
