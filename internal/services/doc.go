// Package services defines shared utilities consumed by the submission,
// progress and orchestration packages.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and component names
//     for logging.
//   - Structured error markers plus the Wrap helper, and Classify, which
//     translates an attempt failure into the Kind shown to the user.
//
// Use these helpers when adding new network-facing code so failure handling
// stays uniform across the attempt lifecycle.
package services
