// Package cli provides the interactive shop client.
//
// App wires the session store, the catalog service and avatar storage into a
// line-oriented REPL. Typical flow: browse or search the catalog, add items
// to the cart or favorites, sign in to write reviews and manage the profile.
//
// Key features:
//   - Catalog browsing, substring search and expression queries
//   - Cart and favorites that survive logout
//   - Register / Login / Logout, profile, password and avatar changes
//   - Local reviews overlaid on the remote ones
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and execIface for details.
package cli
