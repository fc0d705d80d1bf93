// Command discjockey watches optical drives and launches a handler process for
// each drive that reports loaded media.
//
// Usage:
//
//	discjockey [-d delay] [-f] [-p pidfile] [-r handler] [-o output] device...
//
// Additional subcommands:
//
//	discjockey probe [device...]   print drive status and media type
//	discjockey config init         write a sample configuration file
//	discjockey config validate     load and check the configuration
package main
