// Package bootloader drives Cypress/Infineon bootloader updates over a single
// read/write/notify endpoint, such as the BLE OTA characteristic.
//
// # Overview
//
// Two pieces cooperate:
//   - Session owns one endpoint. It encodes and writes commands, and decodes
//     each value the endpoint notifies against the command executed last,
//     emitting a typed Notification.
//   - Updater reacts to those notifications: it enters the bootloader,
//     checks the silicon identity, queries flash ranges, streams rows in
//     Send Data chunks, programs and verifies every row, verifies the
//     application checksum and finally exits the bootloader.
//
// Nothing blocks. Start issues the first command and returns; every other
// command is written from the goroutine that delivers notifications.
//
// # Basic Usage
//
//	fw, err := cyacd.Parse("firmware.cyacd")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session := bootloader.NewSession(endpoint)
//	u, err := bootloader.New(session, []*cyacd.Firmware{fw},
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Fraction*100)
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// start once the endpoint has been discovered
//	session.OnFound(func(*bootloader.Session) { _ = u.Start() })
//
//	// the transport forwards every notification
//	endpoint.OnNotify(session.HandleUpdate)
//	_ = session.Poll()
//
//	if err := u.Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Faults
//
// A silicon mismatch, an invalid application checksum and a failed write are
// always fatal. Row checksum mismatches, undecodable responses and failed
// Send Data / Program Row commands follow the configured Policy; by default
// they are logged and the update carries on, or waits when no next command
// can be derived. There is no timeout: an endpoint that stops answering
// leaves the update in its current state until the caller gives up.
//
// Errors are reported through the progress callback (Progress.Err) and by
// Err and Wait:
//   - SiliconMismatchError: device identity differs from the firmware header
//   - ChecksumMismatchError: a row verified with an unexpected checksum
//   - VerificationError: the application checksum is invalid
//   - TransportError: a command could not be written
//   - protocol.ProtocolError: a command was answered with an error status
//   - protocol.DecodeError: a response could not be decoded
package bootloader
