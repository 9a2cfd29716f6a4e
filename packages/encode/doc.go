// Package encode builds the wire payloads of outgoing requests: percent
// encoded query strings, form-urlencoded bodies, and multipart bodies
// carrying binary attachments.
//
// One rule set covers both query strings and form bodies, so a value
// encodes identically whether it travels in the URL or in the body.
// Multipart assembly is deliberately narrow: attachments are always
// written as image/png parts with millisecond-timestamp filenames, and
// a body is only multipart when form fields and attachments are both
// present. Attachments without form fields produce no body at all; that
// asymmetry is load-bearing for callers, so Payload keeps it.
package encode
