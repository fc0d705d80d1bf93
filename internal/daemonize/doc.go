// Package daemonize detaches the supervisor from its controlling terminal and
// maintains the pidfile used by service managers and the discwait helper.
package daemonize
