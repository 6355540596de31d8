// Package service implements the roaming decision loop for wifiroamd.
//
// Roamer drives the per-cycle sequence: refresh the trusted table, scan,
// read the current association, select the best trusted candidate, decide
// stay/connect/switch under the hysteresis threshold, and execute the
// decision through the adapter executor. Component failures inside a cycle
// are logged and absorbed; the fixed-interval schedule is the sole retry
// mechanism.
//
// The EventBus publishes cycle and connection events so main can surface
// them (and tests can observe the loop) without coupling the roamer to any
// particular sink.
package service
