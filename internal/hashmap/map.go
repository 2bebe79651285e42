// Package hashmap provides thread safe generic maps used for in-process caches and counters.
package hashmap

// Map represents the interface every map provided by this package has to implement
type Map[K comparable, V any] interface {
	// Size returns the amount of stored key-value pairs
	Size() int

	// Lookup returns the value assigned to the given key and a boolean indicating if a value was assigned at all
	Lookup(key K) (V, bool)

	// Set sets a key-value pair
	Set(key K, value V)

	// Update atomically replaces the value assigned to the given key with the result of fn.
	// fn receives the current value and whether it was set.
	Update(key K, fn func(current V, ok bool) V) V

	// Unset deletes the value assigned to given key
	Unset(key K)

	// Snapshot returns a copy of all stored key-value pairs
	Snapshot() map[K]V

	// Clear removes all key-value pairs
	Clear()
}
