// Package wire defines the JSON frame contract between the bridge and the
// assistant peer.
//
// Every frame is a single UTF-8 JSON object with a string "type". Correlated
// frames carry "requestId" (opaque, assigned by the peer) and "timestamp"
// (RFC 3339). The type set is closed:
//
// Requests (peer → bridge):
//   - get_context: full context bundle (content, links, selection, metadata)
//   - get_content: main content only
//   - get_links: ranked outbound links
//   - get_selection: current selection plus surrounding window
//   - get_metadata: content metadata only
//   - ping: keep-alive
//
// Responses (bridge → peer):
//   - context_response, content_response, links_response,
//     selection_response, metadata_response, pong, error
//
// Success responses carry {type, requestId, data, timestamp}; failures carry
// data:null plus error:{code,message}. Exactly one of data/error is set.
package wire
