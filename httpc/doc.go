// Package httpc is a non-blocking HTTP(S)/WebSocket client engine.
// Many concurrent exchanges run over a pool of reusable connections,
// driven by a single-threaded, poll-style loop; each exchange is an
// explicit state machine the caller steps through, not a blocking
// call.
//
// Highlights
//   - Call/CallRef: a packed, copyable identity per exchange, with a
//     sentinel "empty" value and one-way invalidation, so readiness
//     events can never be misrouted to a reused slot.
//   - SendState/RecvState: closed variant sets reported after every
//     drive step; the caller's own loop supplies the iteration.
//   - Zero-copy headers: the response keeps the raw header block and
//     parses into a fixed 32-entry view on demand, no allocation.
//   - Redirects and digest auth re-enter the send phase on the same
//     Call; a WebSocket upgrade hands the open stream to the caller.
//   - Observability: plug-in Logger and Meter interfaces.
//
// Quick start (blocking wrapper):
//
//	status, hdrs, body, err := httpc.NewSyncCall().TimeoutMs(5000).Get("https://example.com")
//	if err != nil { log.Fatal(err) }
//	fmt.Println(status, hdrs, len(body))
//
// Quick start (driving a call):
//
//	h := httpc.New(httpc.NewConfig())
//	call, err := h.StartCall(httpc.NewRequest().Get("http://127.0.0.1:8080/"))
//	if err != nil { log.Fatal(err) }
//	sc := call.Simple()
//	for {
//	    if done, err := sc.Perform(h); done || err != nil { break }
//	    // wait for the poller before the next step
//	}
package httpc
