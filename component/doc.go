// Package component defines lifecycle management for infrastructure
// components. Components register with a Registry, which starts them in
// registration order and stops them in reverse order.
package component
