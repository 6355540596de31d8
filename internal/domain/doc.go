// Package domain holds the core entities and pure decision logic for
// wifiroamd.
//
// Everything here is recomputed from scratch each cycle: the trusted table
// is reloaded, observations and the connection state are read fresh, and
// SelectBest/Decide derive the cycle's action from explicit inputs alone.
// Keeping these functions free of hidden state is what lets the switch
// rules be tested without real network hardware.
package domain
