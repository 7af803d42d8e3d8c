/*
Package api holds the HTTP surface of the TEE signing service.

The service exposes two endpoints:

  - GET /address returns the signer's current address as {"address": "0x..."}.
  - POST /execute takes a JSON TEERequest and answers with a server-sent
    event stream. Keep-alive "ping" events may arrive at any time; the
    exchange ends with exactly one "result" event whose id is the hex request
    id and whose data is the externally tagged EventPayload.

Subpackages:

  - teehandler serves both endpoints on a chi router.
  - teeclient talks to them and tracks the client-side lifecycle of an
    exchange.

A stream that ends before its result event is a transport failure
(interfaces.ErrDisconnected), never a remote error.
*/
package api
