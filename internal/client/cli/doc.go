// Package cli provides the interactive EventPass command-line client.
//
// It wires configuration, the local database, the service client and the
// flows behind a REPL. On start it offers a login (pre-filled from
// remembered credentials), starts a background connectivity watcher and
// then executes user commands:
//
//   - register / login / logout
//   - events, event <id>, join <id>, registrations
//   - scan <payload>: check-in or store payment, chosen from the payload
//   - checkin <registration id>: scan for one specific registration
//   - pay <store id>, profile, deposit <amount>
//   - ticket, history [export | <n>]: locally issued QR tickets
//   - upload <registration id> <file>: attach a proof image
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
