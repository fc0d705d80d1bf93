// Package supervisor runs the drive poll loop: it probes each configured
// drive, launches one handler per drive when media appears, reaps finished
// handlers, and relays termination signals to live handlers on shutdown.
//
// Each drive owns a fixed slot. A slot is either idle or bound to exactly one
// running handler pid; a drive is never probed while its slot is busy.
package supervisor
