// Package discovery finds Roku devices on the local network.
//
// An Agent sends a single SSDP M-SEARCH for the roku:ecp search target and
// collects unicast replies until its window elapses. Replies are parsed as
// HTTP responses, deduplicated by USN and address, and optionally named by
// asking each device for its /query/device-info report.
package discovery
