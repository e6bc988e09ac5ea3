// Package lmanage drives the latchkey store: it assembles authorities from
// raw user input, reads secret material, renders entries, and moves whole
// stores in and out through base64-wrapped zip archives.
//
// Commands form a closed set of typed variants dispatched by Manager.Run.
// The manager talks only to ldb.Database, so the four-key-family invariants
// never depend on a caller being careful with the keychain.
//
// Secret input goes through the SecretSource interface. The production
// implementation prompts on the controlling terminal without echo and reads
// private keys from files; tests substitute a fixed source.
package lmanage
