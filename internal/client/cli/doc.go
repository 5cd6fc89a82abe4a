// Package cli provides the interactive pixelstudio command-line client.
//
// It wires configuration, the persistent cookie jar, the API client and the
// route gate into a REPL. The session survives restarts: cookies the server
// sets are stored locally and restored on start, and the first protected
// call refreshes them if the access token has expired.
//
// Commands:
//   - signup / login / logout
//   - whoami, refresh
//   - open <route>   ask the gate what the web app would show
//   - images, upload <file>, delete <id>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
